package viz

// Bar is one row of the waterfall layout. LeftPercent and WidthPercent are
// relative to the full trace duration, so any renderer (HTML, terminal) can
// place the bar without re-deriving the time math.
type Bar struct {
	SpanID       string  `json:"span_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
	Duration     float64 `json:"duration_seconds"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Node is one visual node of the span dependency graph.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Class  string `json:"class"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Edge is one parent→child dependency between spans.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the renderable projection of one trace's span set.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Layout positions graph nodes. The default is a simple index-based offset,
// not a real layout algorithm; this seam exists so one can be substituted
// without touching data fetching or projection.
type Layout interface {
	Position(index int, hasParent bool) (x, y int)
}

// IndexLayout spaces nodes horizontally by list index and drops parented
// spans onto a lower row.
type IndexLayout struct {
	XStep int
	YStep int
}

// DefaultLayout returns the index layout with the spacing the web UI expects.
func DefaultLayout() IndexLayout {
	return IndexLayout{XStep: 180, YStep: 120}
}

// Position implements Layout.
func (l IndexLayout) Position(index int, hasParent bool) (x, y int) {
	x = index * l.XStep
	if hasParent {
		y = l.YStep
	}
	return x, y
}
