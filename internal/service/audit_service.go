package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/events"
)

// AuditService writes a structured audit line for every auth event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to all auth events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventIdentityRegistered,
		events.EventAccessTokenRefreshed,
		events.EventServiceTokenIssued,
	} {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("mode", string(event.Mode)),
		zap.String("email", event.Email),
		zap.Time("at", event.Timestamp))
	return nil
}
