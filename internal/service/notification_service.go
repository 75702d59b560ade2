package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-request-service/internal/events"
)

// Notifier is the outbound notification port. Implementations may fail;
// callers treat delivery as best-effort.
type Notifier interface {
	NotifySubmitted(ctx context.Context, toEmail, requestNumber, title string) error
	NotifyStatusChanged(ctx context.Context, toEmail, requestNumber, title, newStatusName string) error
}

// NotificationService bridges domain events to the Notifier. Delivery
// failures are logged and swallowed; they never reach the mutation path.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service. notifier may be nil when
// outbound email is not configured.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events that trigger citizen email.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestSubmitted, n.handleRequestSubmitted)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleRequestStatusChanged)
}

func (n *NotificationService) handleRequestSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestSubmittedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for request_submitted", zap.String("request_id", event.RequestID))
		return nil
	}
	if n.notifier == nil || payload.CitizenEmail == "" {
		return nil
	}
	if err := n.notifier.NotifySubmitted(ctx, payload.CitizenEmail, event.RequestNumber, payload.Title); err != nil {
		n.logger.Error("submitted notification failed",
			zap.String("request_number", event.RequestNumber),
			zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleRequestStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for request_status_changed", zap.String("request_id", event.RequestID))
		return nil
	}
	if n.notifier == nil || payload.CitizenEmail == "" {
		return nil
	}
	statusName := payload.NewStatus.Name()
	if statusName == "" {
		statusName = "Updated"
	}
	if err := n.notifier.NotifyStatusChanged(ctx, payload.CitizenEmail, event.RequestNumber, payload.Title, statusName); err != nil {
		n.logger.Error("status notification failed",
			zap.String("request_number", event.RequestNumber),
			zap.String("new_status", payload.NewStatus.Name()),
			zap.Error(err))
	}
	return nil
}
