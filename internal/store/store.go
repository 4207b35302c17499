// Package store holds the client-side cache of server responses: the trace
// list, the analytics snapshot, the selected trace's spans, and the active
// date filter. All state transitions go through named operations; rendering
// code only ever sees copies via Snapshot.
package store

import (
	"sync"
	"time"

	"github.com/tracedeck/tracedeck/internal/api"
)

// Store is the single shared mutable state of the dashboard. Mutated only
// by the poller and dispatcher, read by the web UI and CLI renderers.
type Store struct {
	mu          sync.RWMutex
	traces      []api.Trace
	analytics   *api.AnalyticsSnapshot
	selected    string
	spans       []api.Span
	filter      api.FilterParams
	appliedSeq  uint64
	errorSeq    uint64
	lastRefresh time.Time
	lastError   string

	// Subscriber notification for real-time streaming (e.g. WebSocket)
	subscriberMu     sync.Mutex
	subscribers      map[uint64]chan struct{}
	nextSubscriberID uint64

	// Filter-change signal consumed by the poller to reset its timer.
	filterCh chan struct{}
}

// Snapshot is a copy-on-read view of the store for rendering.
type Snapshot struct {
	Traces      []api.Trace            `json:"traces"`
	Analytics   *api.AnalyticsSnapshot `json:"analytics,omitempty"`
	Selected    string                 `json:"selected,omitempty"`
	Spans       []api.Span             `json:"spans,omitempty"`
	Filter      api.FilterParams       `json:"filter"`
	LastRefresh time.Time              `json:"last_refresh"`
	LastError   string                 `json:"last_error,omitempty"`
}

// Stale reports whether the cached data is older than maxAge. A store that
// has never refreshed successfully is always stale.
func (s Snapshot) Stale(maxAge time.Duration, now time.Time) bool {
	if s.LastRefresh.IsZero() {
		return true
	}
	return now.Sub(s.LastRefresh) > maxAge
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subscribers: make(map[uint64]chan struct{}),
		filterCh:    make(chan struct{}, 1),
	}
}

// Subscribe returns a notification channel and an unsubscribe function.
// The channel receives a signal whenever the store changes. It is buffered
// with capacity 1 to coalesce rapid updates.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()

	id := s.nextSubscriberID
	s.nextSubscriberID++

	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch

	unsubscribe := func() {
		s.subscriberMu.Lock()
		defer s.subscriberMu.Unlock()
		delete(s.subscribers, id)
	}

	return ch, unsubscribe
}

func (s *Store) notifySubscribers() {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// Pending notification already queued; coalesce.
		}
	}
}

// ApplyRefresh replaces the trace list and analytics snapshot wholesale.
// seq is the refresh's monotonic sequence number; a result older than the
// last applied one is discarded so an overlapping slow response cannot
// overwrite newer data. Returns whether the result was applied.
func (s *Store) ApplyRefresh(seq uint64, traces []api.Trace, analytics *api.AnalyticsSnapshot) bool {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		return false
	}
	s.appliedSeq = seq
	s.traces = traces
	s.analytics = analytics
	s.lastRefresh = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	s.notifySubscribers()
	return true
}

// RecordRefreshError notes a failed refresh without touching cached data
// (stale-but-available). Errors from refreshes older than the latest
// applied or recorded one are ignored.
func (s *Store) RecordRefreshError(seq uint64, err error) {
	s.mu.Lock()
	if seq <= s.appliedSeq || seq <= s.errorSeq {
		s.mu.Unlock()
		return
	}
	s.errorSeq = seq
	s.lastError = err.Error()
	s.mu.Unlock()

	s.notifySubscribers()
}

// Select marks a trace as selected and clears any previously loaded spans.
// Selecting the empty string clears the selection.
func (s *Store) Select(traceID string) {
	s.mu.Lock()
	s.selected = traceID
	s.spans = nil
	s.mu.Unlock()

	s.notifySubscribers()
}

// ClearSelection drops the selection and its span cache.
func (s *Store) ClearSelection() { s.Select("") }

// Selected returns the currently selected trace ID, or "".
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSpans installs the span list for a trace. Ignored unless traceID still
// matches the selection, so a slow detail fetch cannot attach spans to a
// different trace. Returns whether the spans were installed.
func (s *Store) SetSpans(traceID string, spans []api.Span) bool {
	s.mu.Lock()
	if traceID == "" || traceID != s.selected {
		s.mu.Unlock()
		return false
	}
	s.spans = spans
	s.mu.Unlock()

	s.notifySubscribers()
	return true
}

// RemoveTrace optimistically drops a trace from the cached list. If it was
// selected, the selection and span cache are cleared with it so nothing
// dangling is rendered before the next refresh reconciles with the server.
func (s *Store) RemoveTrace(traceID string) {
	s.mu.Lock()
	kept := s.traces[:0]
	for _, tr := range s.traces {
		if tr.TraceID != traceID {
			kept = append(kept, tr)
		}
	}
	s.traces = kept
	if s.selected == traceID {
		s.selected = ""
		s.spans = nil
	}
	s.mu.Unlock()

	s.notifySubscribers()
}

// SetFilter replaces the analytics date filter. A change signals the
// poller's filter channel so it refreshes immediately and restarts its
// timer. Setting an identical filter is a no-op.
func (s *Store) SetFilter(filter api.FilterParams) {
	s.mu.Lock()
	if filter == s.filter {
		s.mu.Unlock()
		return
	}
	s.filter = filter
	s.mu.Unlock()

	select {
	case s.filterCh <- struct{}{}:
	default:
	}
	s.notifySubscribers()
}

// Filter returns the active analytics date filter.
func (s *Store) Filter() api.FilterParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// FilterChanges is the coalescing signal channel for filter updates.
func (s *Store) FilterChanges() <-chan struct{} { return s.filterCh }

// Snapshot returns a copy of the current state for rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Selected:    s.selected,
		Filter:      s.filter,
		LastRefresh: s.lastRefresh,
		LastError:   s.lastError,
	}
	if s.traces != nil {
		snap.Traces = make([]api.Trace, len(s.traces))
		copy(snap.Traces, s.traces)
	}
	if s.spans != nil {
		snap.Spans = make([]api.Span, len(s.spans))
		copy(snap.Spans, s.spans)
	}
	if s.analytics != nil {
		a := *s.analytics
		snap.Analytics = &a
	}
	return snap
}
