package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracedeck/tracedeck/internal/api"
)

func someTraces() []api.Trace {
	return []api.Trace{
		{TraceID: "t1", Name: "run", Status: api.StatusSuccess},
		{TraceID: "t2", Name: "run", Status: api.StatusFailure},
		{TraceID: "t3", Name: "run", Status: api.StatusSuccess},
	}
}

func TestApplyRefreshReplacesWholesale(t *testing.T) {
	s := New()
	applied := s.ApplyRefresh(1, someTraces(), &api.AnalyticsSnapshot{ErrorRate: 5})
	require.True(t, applied)

	snap := s.Snapshot()
	assert.Len(t, snap.Traces, 3)
	assert.Equal(t, 5.0, snap.Analytics.ErrorRate)
	assert.Empty(t, snap.LastError)
	assert.False(t, snap.LastRefresh.IsZero())

	// Next refresh replaces, never merges.
	require.True(t, s.ApplyRefresh(2, someTraces()[:1], nil))
	snap = s.Snapshot()
	assert.Len(t, snap.Traces, 1)
	assert.Nil(t, snap.Analytics)
}

func TestStaleRefreshDiscarded(t *testing.T) {
	s := New()
	require.True(t, s.ApplyRefresh(2, someTraces(), nil))
	// An overlapping refresh that started earlier finishes late: dropped.
	assert.False(t, s.ApplyRefresh(1, nil, nil))
	assert.Len(t, s.Snapshot().Traces, 3)
}

func TestRefreshErrorKeepsData(t *testing.T) {
	s := New()
	require.True(t, s.ApplyRefresh(1, someTraces(), &api.AnalyticsSnapshot{}))

	s.RecordRefreshError(2, errors.New("connection refused"))
	snap := s.Snapshot()
	assert.Len(t, snap.Traces, 3, "stale data stays available")
	assert.NotNil(t, snap.Analytics)
	assert.Equal(t, "connection refused", snap.LastError)

	// An error from a refresh older than the applied one is ignored.
	s2 := New()
	require.True(t, s2.ApplyRefresh(5, someTraces(), nil))
	s2.RecordRefreshError(4, errors.New("late failure"))
	assert.Empty(t, s2.Snapshot().LastError)

	// A success clears the error state.
	require.True(t, s.ApplyRefresh(3, someTraces(), nil))
	assert.Empty(t, s.Snapshot().LastError)
}

func TestDeleteSelectedClearsSelectionAndSpans(t *testing.T) {
	s := New()
	require.True(t, s.ApplyRefresh(1, someTraces(), nil))

	s.Select("t2")
	require.True(t, s.SetSpans("t2", []api.Span{{SpanID: "a", Name: "root"}}))
	require.Equal(t, "t2", s.Selected())

	s.RemoveTrace("t2")
	snap := s.Snapshot()
	assert.Len(t, snap.Traces, 2)
	assert.Empty(t, snap.Selected, "deleting the selected trace clears selection")
	assert.Empty(t, snap.Spans, "no dangling graph state")
}

func TestDeleteOtherTraceKeepsSelection(t *testing.T) {
	s := New()
	require.True(t, s.ApplyRefresh(1, someTraces(), nil))
	s.Select("t1")
	require.True(t, s.SetSpans("t1", []api.Span{{SpanID: "a"}}))

	s.RemoveTrace("t3")
	snap := s.Snapshot()
	assert.Equal(t, "t1", snap.Selected)
	assert.Len(t, snap.Spans, 1)
}

func TestSetSpansIgnoredAfterSelectionChanged(t *testing.T) {
	s := New()
	s.Select("t1")
	s.Select("t2")
	assert.False(t, s.SetSpans("t1", []api.Span{{SpanID: "a"}}),
		"late detail fetch for a deselected trace must not attach")
	assert.Empty(t, s.Snapshot().Spans)
}

func TestSetFilterSignalsOnce(t *testing.T) {
	s := New()
	f := api.FilterParams{Start: "2024-01-01", End: "2024-01-31"}
	s.SetFilter(f)
	s.SetFilter(f) // identical: no second signal queued, no notification storm

	select {
	case <-s.FilterChanges():
	default:
		t.Fatal("expected a filter change signal")
	}
	select {
	case <-s.FilterChanges():
		t.Fatal("identical filter must not signal again")
	default:
	}
	assert.Equal(t, f, s.Filter())
}

func TestSubscribeCoalescesAndUnsubscribes(t *testing.T) {
	s := New()
	ch, unsubscribe := s.Subscribe()

	s.ApplyRefresh(1, someTraces(), nil)
	s.Select("t1")
	// Multiple mutations coalesce into at most one pending signal.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}

	unsubscribe()
	s.Select("t2")
	select {
	case <-ch:
		t.Fatal("unsubscribed channel must not receive")
	default:
	}
}

func TestSnapshotStale(t *testing.T) {
	now := time.Now()
	assert.True(t, Snapshot{}.Stale(time.Minute, now), "never refreshed is stale")
	assert.False(t, Snapshot{LastRefresh: now.Add(-10 * time.Second)}.Stale(time.Minute, now))
	assert.True(t, Snapshot{LastRefresh: now.Add(-2 * time.Minute)}.Stale(time.Minute, now))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	require.True(t, s.ApplyRefresh(1, someTraces(), &api.AnalyticsSnapshot{ErrorRate: 1}))

	snap := s.Snapshot()
	snap.Traces[0].TraceID = "mutated"
	snap.Analytics.ErrorRate = 99

	fresh := s.Snapshot()
	assert.Equal(t, "t1", fresh.Traces[0].TraceID)
	assert.Equal(t, 1.0, fresh.Analytics.ErrorRate)
}
