package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTraces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/traces", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"trace_id":"t1","name":"agent_run","start_time":"2024-01-05T12:00:00","status":"SUCCESS"},
			{"trace_id":"t2","name":"agent_run","start_time":"2024-01-05T12:01:00","status":"FAILURE"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	traces, err := client.ListTraces(context.Background())
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "t1", traces[0].TraceID)
	assert.Equal(t, StatusFailure, traces[1].Status)
}

func TestGetTrace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/traces/t1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"span_id":"a","name":"root","type":"agent","status":"SUCCESS","start_time":100.0,"end_time":110.0,"duration":10.0},
			{"span_id":"b","parent_span_id":"a","name":"llm_call","type":"llm","status":"SUCCESS","start_time":101.0,"duration":5.0,
			 "meta":{"usage":{"total_tokens":123}},"inputs":{"prompt":"hi"},"outputs":"ok"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	spans, err := client.GetTrace(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.True(t, spans[0].IsRoot())
	assert.False(t, spans[1].IsRoot())
	assert.Equal(t, 10.0, spans[0].DurationSeconds())
	assert.Equal(t, 110.0, spans[0].EndSeconds())
	// No end_time: duration drives the computed end.
	assert.Equal(t, 106.0, spans[1].EndSeconds())
}

func TestAnalyticsQueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/dashboard", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error_rate":12.5,
			"latency_by_type":[{"type":"llm","avg":1.2,"p95":3.4}],
			"daily_trend":[{"date":"2024-01-01","tokens":1000}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	// Empty filter sends no query parameters.
	snap, err := client.Analytics(context.Background(), FilterParams{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery.Encode())
	assert.Equal(t, 12.5, snap.ErrorRate)
	require.Len(t, snap.LatencyByType, 1)
	assert.Equal(t, "llm", snap.LatencyByType[0].Type)

	// A full filter sends exactly start and end, nothing else.
	_, err = client.Analytics(context.Background(), FilterParams{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"start": {"2024-01-01"}, "end": {"2024-01-31"}}, gotQuery)
}

func TestDeleteAndResets(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()
	require.NoError(t, client.DeleteTrace(ctx, "t9"))
	require.NoError(t, client.ResetMetrics(ctx))
	require.NoError(t, client.ResetAll(ctx))
	assert.Equal(t, []string{"/traces/t9", "/analytics/reset", "/traces/reset"}, paths)
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.ListTraces(ctx)
	assert.Error(t, err)
	_, err = client.Analytics(ctx, FilterParams{})
	assert.Error(t, err)
	assert.Error(t, client.DeleteTrace(ctx, "x"))
	assert.Error(t, client.ResetMetrics(ctx))
}

func TestConnectionRefusedIsError(t *testing.T) {
	// Closed server: transport failures surface like any other error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	_, err := client.ListTraces(context.Background())
	assert.Error(t, err)
}
