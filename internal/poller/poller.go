// Package poller keeps the store consistent with the remote trace store:
// one refresh immediately on start or filter change, then one every fixed
// interval. Failures leave the previous cache in place.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/metrics"
	"github.com/tracedeck/tracedeck/internal/store"
)

// DefaultInterval is the fixed refresh period.
const DefaultInterval = 5 * time.Second

// Poller periodically re-fetches the trace list and analytics snapshot.
type Poller struct {
	client   *api.Client
	store    *store.Store
	interval time.Duration
	seq      atomic.Uint64
}

// New creates a poller. interval <= 0 uses DefaultInterval.
func New(client *api.Client, st *store.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{client: client, store: st, interval: interval}
}

// Refresh fetches the trace list and the analytics snapshot concurrently,
// passing the store's current filter to analytics, and replaces both cached
// values wholesale. On any failure the store keeps its previous data and
// records the error. Each refresh carries a monotonic sequence number so an
// overlapping refresh that finishes out of order is discarded, not applied.
func (p *Poller) Refresh(ctx context.Context) error {
	seq := p.seq.Add(1)
	filter := p.store.Filter()
	started := time.Now()

	var (
		traces    []api.Trace
		analytics *api.AnalyticsSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if traces, err = p.client.ListTraces(gctx); err != nil {
			metrics.RefreshErrors.WithLabelValues("traces").Inc()
			return err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if analytics, err = p.client.Analytics(gctx, filter); err != nil {
			metrics.RefreshErrors.WithLabelValues("analytics").Inc()
			return err
		}
		return nil
	})

	metrics.RefreshesTotal.Inc()
	if err := g.Wait(); err != nil {
		p.store.RecordRefreshError(seq, err)
		log.Printf("poller: refresh failed, keeping cached data: %v", err)
		return fmt.Errorf("refresh: %w", err)
	}
	metrics.RefreshDuration.Observe(time.Since(started).Seconds())

	if !p.store.ApplyRefresh(seq, traces, analytics) {
		metrics.StaleResponsesDiscarded.Inc()
		return nil
	}
	metrics.LastRefreshTimestamp.SetToCurrentTime()
	return nil
}

// LoadTrace fetches the full span list for a trace and installs it as the
// selected trace's spans. The store rejects the result if the selection
// moved on while the fetch was in flight.
func (p *Poller) LoadTrace(ctx context.Context, traceID string) error {
	spans, err := p.client.GetTrace(ctx, traceID)
	if err != nil {
		metrics.RefreshErrors.WithLabelValues("trace_detail").Inc()
		log.Printf("poller: trace %s detail fetch failed, keeping previous graph: %v", traceID, err)
		return fmt.Errorf("load trace %s: %w", traceID, err)
	}
	p.store.SetSpans(traceID, spans)
	return nil
}

// Run refreshes immediately, then on every tick. A filter change triggers
// an immediate refresh and restarts the timer, so the old timer is replaced
// rather than stacked. Returns when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	// Errors are recorded in the store and metrics; the loop never stops for them.
	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.store.FilterChanges():
			ticker.Reset(p.interval)
			p.Refresh(ctx)
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
