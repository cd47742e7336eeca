// Package failover guards a primary audit store with a circuit breaker and
// diverts events to a fallback while the primary is unhealthy.
package failover

import (
	"context"
	"fmt"
	"log/slog"

	audit "dicri/pkg/platform/audit"
	"dicri/pkg/platform/circuit"
)

type Store struct {
	primary  audit.Store
	fallback audit.Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(primary, fallback audit.Store, breaker *circuit.Breaker, opts ...Option) *Store {
	s := &Store{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append tries the primary unless the breaker is open. A primary failure is
// retried on the fallback, so the event is only lost when both fail.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return s.appendFallback(ctx, event)
	}

	err := s.primary.Append(ctx, event)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "audit primary recovered", "breaker", s.breaker.Name())
		}
		return nil
	}

	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.WarnContext(ctx, "audit primary unhealthy, diverting to fallback",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if ferr := s.appendFallback(ctx, event); ferr != nil {
		return fmt.Errorf("append audit event: primary: %w; fallback: %w", err, ferr)
	}
	return nil
}

func (s *Store) appendFallback(ctx context.Context, event audit.Event) error {
	if err := s.fallback.Append(ctx, event); err != nil {
		return fmt.Errorf("fallback append: %w", err)
	}
	return nil
}

// LogSink writes events as structured log lines. It is the last-resort
// fallback when the broker is down.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Append(ctx context.Context, event audit.Event) error {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.String("category", string(event.Category)),
		slog.String("action", event.Action),
		slog.Int64("usuario_id", int64(event.UserID)),
		slog.String("rol", event.Role),
		slog.Int64("expediente_id", int64(event.ExpedienteID)),
		slog.Int64("indicio_id", int64(event.IndicioID)),
		slog.String("estado_anterior", event.EstadoAnterior),
		slog.String("estado_nuevo", event.EstadoNuevo),
		slog.String("decision", event.Decision),
		slog.String("reason", event.Reason),
		slog.String("request_id", event.RequestID),
		slog.Time("timestamp", event.Timestamp),
	)
	return nil
}
