package api

// Span status values as reported by the trace store.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Known span types. The set is open; anything else renders as generic.
const (
	TypeLLM      = "llm"
	TypeDB       = "db"
	TypeVectorDB = "vector_db"
)

// Trace is one row of the trace list. The server returns the root span of
// each trace: id, name, ISO start time, and overall status.
type Trace struct {
	TraceID   string `json:"trace_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	Status    string `json:"status"`
}

// Span is one recorded unit of work within a trace. ParentSpanID is empty
// for root spans. Times are unix seconds; EndTime and Duration may be
// absent for spans that never completed.
type Span struct {
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	StartTime    float64        `json:"start_time"`
	EndTime      *float64       `json:"end_time,omitempty"`
	Duration     *float64       `json:"duration,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	Inputs       any            `json:"inputs,omitempty"`
	Outputs      any            `json:"outputs,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// DurationSeconds returns the span duration, preferring the explicit
// duration field, falling back to end-start, then zero.
func (s *Span) DurationSeconds() float64 {
	if s.Duration != nil {
		return *s.Duration
	}
	if s.EndTime != nil && *s.EndTime > s.StartTime {
		return *s.EndTime - s.StartTime
	}
	return 0
}

// EndSeconds returns the span end time, clamped to be no earlier than the
// start time so bad data cannot produce negative extents.
func (s *Span) EndSeconds() float64 {
	end := s.StartTime
	if s.EndTime != nil && *s.EndTime > end {
		end = *s.EndTime
	}
	if d := s.StartTime + s.DurationSeconds(); d > end {
		end = d
	}
	return end
}

// IsRoot reports whether the span has no parent.
func (s *Span) IsRoot() bool { return s.ParentSpanID == "" }

// LatencyStat is one row of the per-type latency table.
type LatencyStat struct {
	Type string  `json:"type"`
	Avg  float64 `json:"avg"`
	P95  float64 `json:"p95"`
}

// TrendPoint is one day of the token volume trend.
type TrendPoint struct {
	Date   string `json:"date"`
	Tokens int64  `json:"tokens"`
}

// AnalyticsSnapshot is the server-computed aggregate view. It is an opaque
// read model: the client never derives it locally.
type AnalyticsSnapshot struct {
	ErrorRate     float64       `json:"error_rate"`
	LatencyByType []LatencyStat `json:"latency_by_type"`
	DailyTrend    []TrendPoint  `json:"daily_trend"`
}

// FilterParams is the optional date range applied to analytics queries.
// Values are ISO dates (YYYY-MM-DD) with no time component. Empty fields
// are omitted from the request entirely.
type FilterParams struct {
	Start string `json:"start,omitempty" yaml:"start"`
	End   string `json:"end,omitempty" yaml:"end"`
}

// IsZero reports whether no filter is set.
func (f FilterParams) IsZero() bool { return f.Start == "" && f.End == "" }
