package worker

import (
	"context"
	"log/slog"

	audit "dicri/pkg/platform/audit"
)

// Worker drains an event channel into a store. Append failures are logged and
// the worker moves on; audit delivery never blocks the workflow.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run returns when the inbox is closed and drained, or when ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"error", err,
					"action", event.Action,
					"expediente_id", event.ExpedienteID.String(),
				)
			}
		}
	}
}
