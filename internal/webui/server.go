// Package webui serves the embedded dashboard page, its JSON API, and a
// WebSocket stream of state snapshots.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/dispatch"
	"github.com/tracedeck/tracedeck/internal/store"
	"github.com/tracedeck/tracedeck/internal/viz"
)

//go:embed static/index.html
var staticFiles embed.FS

// staleAfter is how long without a successful refresh before the UI shows
// the staleness banner. Three missed 5s polls.
const staleAfter = 15 * time.Second

// Loader fetches remote data into the store. Satisfied by *poller.Poller.
type Loader interface {
	Refresh(ctx context.Context) error
	LoadTrace(ctx context.Context, traceID string) error
}

// Server serves the embedded web UI and WebSocket updates.
type Server struct {
	store      *store.Store
	loader     Loader
	dispatcher *dispatch.Dispatcher
}

// New creates a new web UI server.
func New(st *store.Store, loader Loader, dispatcher *dispatch.Dispatcher) *Server {
	return &Server{store: st, loader: loader, dispatcher: dispatcher}
}

// RegisterRoutes attaches web UI routes to an existing ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ui/", s.handleUI)
	mux.HandleFunc("GET /ui", s.handleUIRedirect)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/trace/{id}", s.handleTrace)
	mux.HandleFunc("POST /api/select/{id}", s.handleSelect)
	mux.HandleFunc("POST /api/filter", s.handleFilter)
	mux.HandleFunc("DELETE /api/traces/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/reset/metrics", s.handleResetMetrics)
	mux.HandleFunc("POST /api/reset/all", s.handleResetAll)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// ListenAndServe starts a standalone HTTP server for the web UI.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleUIRedirect redirects /ui to /ui/ for consistent routing.
func (s *Server) handleUIRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui/", http.StatusMovedPermanently)
}

// handleUI serves the embedded index.html.
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "UI not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// stateResponse is the JSON shape for /api/state and WebSocket pushes.
type stateResponse struct {
	store.Snapshot
	Stale     bool       `json:"stale"`
	Waterfall []viz.Bar  `json:"waterfall,omitempty"`
	Graph     *viz.Graph `json:"graph,omitempty"`
}

func (s *Server) currentState() stateResponse {
	snap := s.store.Snapshot()
	resp := stateResponse{
		Snapshot: snap,
		Stale:    snap.Stale(staleAfter, time.Now()),
	}
	if len(snap.Spans) > 0 {
		resp.Waterfall = viz.WaterfallLayout(snap.Spans)
		g := viz.ProjectGraph(snap.Spans, nil)
		resp.Graph = &g
	}
	return resp
}

// handleState returns the full dashboard state snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.currentState())
}

// traceResponse is the JSON shape for /api/trace/{id}.
type traceResponse struct {
	TraceID   string     `json:"trace_id"`
	Spans     []api.Span `json:"spans"`
	Waterfall []viz.Bar  `json:"waterfall"`
	Graph     viz.Graph  `json:"graph"`
	DOT       string     `json:"dot"`
}

// handleTrace selects a trace, loads its spans, and returns the span list
// with waterfall and graph projections.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")
	s.store.Select(traceID)
	if err := s.loader.LoadTrace(r.Context(), traceID); err != nil {
		// The client keeps its previous graph; the failure is surfaced.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	snap := s.store.Snapshot()
	if snap.Selected != traceID {
		// Selection moved on while we were loading.
		http.Error(w, "selection changed", http.StatusConflict)
		return
	}
	writeJSON(w, traceResponse{
		TraceID:   traceID,
		Spans:     snap.Spans,
		Waterfall: viz.WaterfallLayout(snap.Spans),
		Graph:     viz.ProjectGraph(snap.Spans, nil),
		DOT:       viz.DOT(snap.Spans),
	})
}

// handleSelect marks a trace as selected and loads its spans. The updated
// state (projections included) arrives over the WebSocket, so the response
// carries no body.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")
	s.store.Select(traceID)
	if err := s.loader.LoadTrace(r.Context(), traceID); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFilter replaces the analytics date filter. The poller picks up the
// change and refreshes immediately.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var filter api.FilterParams
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		http.Error(w, "invalid filter: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.store.SetFilter(filter)
	w.WriteHeader(http.StatusNoContent)
}

// handleDelete deletes one trace. Confirmation happened in the browser.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.DeleteTrace(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetMetrics(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.ResetMetrics(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.ResetAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wsControl is the client-sent control message on the WebSocket. Fields are
// pointers so a message carrying only one of them leaves the other alone.
type wsControl struct {
	Paused *bool             `json:"paused,omitempty"`
	Filter *api.FilterParams `json:"filter,omitempty"`
}

// handleWebSocket upgrades to WebSocket and streams state snapshots on
// every store change, with a keepalive so the client can detect a dead
// server even when nothing changes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for localhost dev
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	notifyCh, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	var paused bool

	// Read control messages from the client in a goroutine.
	controlCh := make(chan wsControl, 4)
	go func() {
		defer close(controlCh)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var c wsControl
			if json.Unmarshal(data, &c) == nil {
				select {
				case controlCh <- c:
				default:
				}
			}
		}
	}()

	// Send initial state immediately.
	s.sendState(ctx, conn)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return

		case c, ok := <-controlCh:
			if !ok {
				// Client disconnected
				return
			}
			if c.Paused != nil {
				paused = *c.Paused
			}
			if c.Filter != nil {
				s.store.SetFilter(*c.Filter)
			}

		case <-notifyCh:
			if paused {
				continue
			}
			s.sendState(ctx, conn)

		case <-keepalive.C:
			if paused {
				// Paused clients get no state, but still need liveness.
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := conn.Ping(pingCtx)
				cancel()
				if err != nil {
					return
				}
				continue
			}
			s.sendState(ctx, conn)
		}
	}
}

// sendState marshals the current state and writes it to the WebSocket.
func (s *Server) sendState(ctx context.Context, conn *websocket.Conn) {
	data, err := json.Marshal(s.currentState())
	if err != nil {
		log.Printf("webui: failed to marshal state: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		// Connection closed; the main loop will handle cleanup.
		return
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("webui: failed to write JSON: %v", err)
	}
}
