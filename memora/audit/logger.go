// Package audit provides the append-only security event trail. Writes are
// fire-and-forget: a failed insert is logged and dropped so an audit outage
// can never abort the operation being audited.
package audit

import (
	"context"
	"log/slog"

	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
)

type Logger struct {
	events repositories.SecurityEventRepository
	log    *slog.Logger
}

func NewLogger(events repositories.SecurityEventRepository) *Logger {
	return &Logger{
		events: events,
		log:    slog.With(slog.String("component", "audit")),
	}
}

func (l *Logger) Append(ctx context.Context, eventType, actorUID, tenant string, detail map[string]any) {
	event := &models.SecurityEvent{
		EventType: eventType,
		ActorUID:  actorUID,
		Tenant:    tenant,
		Detail:    detail,
	}

	if err := l.events.Append(ctx, event); err != nil {
		l.log.Error("Failed to append security event",
			slog.String("type", "error"),
			slog.String("event_type", eventType),
			slog.String("tenant", tenant),
			slog.Any("error", err))
	}
}
