// Package notify compone la capacidad de notificaciones: un Notifier principal
// (guarda permiso y bandeja) más sinks de entrega en vivo (MQTT, webhook).
package notify

import (
	"context"

	"family-care/internal/platform/logger"
	"family-care/internal/ports/notifications"
)

// Sink entrega una notificación ya emitida a otro canal.
type Sink interface {
	Name() string
	Push(ctx context.Context, n notifications.Notification) error
}

type Fanout struct {
	primary notifications.Notifier
	sinks   []Sink
	log     logger.Logger
}

func NewFanout(primary notifications.Notifier, log logger.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		primary: primary,
		sinks:   sinks,
		log:     logger.OrNop(log).With(map[string]any{"component": "notify"}),
	}
}

func (f *Fanout) Permission(ctx context.Context, recipient string) (notifications.Permission, error) {
	return f.primary.Permission(ctx, recipient)
}

func (f *Fanout) RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error) {
	return f.primary.RequestPermission(ctx, recipient, answer)
}

// Emit falla solo si falla el principal; los errores de sinks se loguean.
func (f *Fanout) Emit(ctx context.Context, n notifications.Notification) (notifications.Handle, error) {
	h, err := f.primary.Emit(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, s := range f.sinks {
		if err := s.Push(ctx, n); err != nil {
			f.log.Warn("notification sink failed", map[string]any{
				"sink":  s.Name(),
				"tag":   n.Tag,
				"error": err,
			})
		}
	}
	return h, nil
}

var _ notifications.Notifier = (*Fanout)(nil)
