// Package dispatch issues the destructive administrative commands (delete
// trace, reset metrics, reset all data) and resynchronizes the store with
// server truth afterward. Every command is gated on a Confirmer.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/metrics"
	"github.com/tracedeck/tracedeck/internal/store"
)

// ErrDeclined is returned when the confirmer rejects a command. Nothing was
// sent to the server.
var ErrDeclined = errors.New("command declined")

// Confirmer approves or rejects a destructive command before it is sent.
// The embedding surface decides the modality: a terminal prompt for the
// CLI, a browser confirm dialog for the web UI.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// AutoConfirm approves everything. Used where confirmation already
// happened upstream (browser dialogs, --yes flags).
var AutoConfirm Confirmer = ConfirmerFunc(func(string) bool { return true })

// Refresher triggers a full re-fetch after a mutation. Satisfied by
// *poller.Poller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Dispatcher executes administrative commands against the trace store.
type Dispatcher struct {
	client    *api.Client
	store     *store.Store
	refresher Refresher
	confirm   Confirmer
}

// New creates a dispatcher. A nil confirmer approves everything.
func New(client *api.Client, st *store.Store, refresher Refresher, confirm Confirmer) *Dispatcher {
	if confirm == nil {
		confirm = AutoConfirm
	}
	return &Dispatcher{client: client, store: st, refresher: refresher, confirm: confirm}
}

// DeleteTrace deletes one trace. On confirmation it issues the delete,
// optimistically removes the trace from the local list (clearing any
// selection and graph referencing it), then refreshes to reconcile with
// server truth.
func (d *Dispatcher) DeleteTrace(ctx context.Context, traceID string) error {
	if !d.confirm.Confirm(fmt.Sprintf("Delete trace %s? This cannot be undone.", traceID)) {
		metrics.CommandsTotal.WithLabelValues("delete_trace", "declined").Inc()
		return ErrDeclined
	}

	if err := d.client.DeleteTrace(ctx, traceID); err != nil {
		metrics.CommandsTotal.WithLabelValues("delete_trace", "error").Inc()
		return err
	}
	d.store.RemoveTrace(traceID)
	metrics.CommandsTotal.WithLabelValues("delete_trace", "ok").Inc()

	d.resync(ctx)
	return nil
}

// ResetMetrics clears the server's analytics store, then refreshes. No
// optimistic local change and no rollback: the refresh is the reconcile.
// Safe to call repeatedly; each call is an identical request + refresh.
func (d *Dispatcher) ResetMetrics(ctx context.Context) error {
	if !d.confirm.Confirm("Reset all analytics metrics?") {
		metrics.CommandsTotal.WithLabelValues("reset_metrics", "declined").Inc()
		return ErrDeclined
	}

	if err := d.client.ResetMetrics(ctx); err != nil {
		metrics.CommandsTotal.WithLabelValues("reset_metrics", "error").Inc()
		return err
	}
	metrics.CommandsTotal.WithLabelValues("reset_metrics", "ok").Inc()

	d.resync(ctx)
	return nil
}

// ResetAll clears all traces and analytics server-side, then refreshes.
func (d *Dispatcher) ResetAll(ctx context.Context) error {
	if !d.confirm.Confirm("Reset ALL traces and metrics?") {
		metrics.CommandsTotal.WithLabelValues("reset_all", "declined").Inc()
		return ErrDeclined
	}

	if err := d.client.ResetAll(ctx); err != nil {
		metrics.CommandsTotal.WithLabelValues("reset_all", "error").Inc()
		return err
	}
	d.store.ClearSelection()
	metrics.CommandsTotal.WithLabelValues("reset_all", "ok").Inc()

	d.resync(ctx)
	return nil
}

// resync triggers a full refresh after a mutation. A refresh failure is
// already recorded in the store; the command itself still succeeded.
func (d *Dispatcher) resync(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.Refresh(ctx); err != nil {
		log.Printf("dispatch: post-command refresh failed: %v", err)
	}
}
