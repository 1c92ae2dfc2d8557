package service

import (
	"github.com/rs/zerolog/log"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/sse"
)

// NotificationStore is the write surface the emitter needs.
type NotificationStore interface {
	Create(n *models.Notification) error
}

// NotificationService records notifications for a user and pushes them
// to connected back-office clients. Persistence failures are returned
// to the caller, who decides whether they matter; the sale engine
// treats them as best-effort.
type NotificationService struct {
	store    NotificationStore
	notifier sse.Notifier
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store NotificationStore, notifier sse.Notifier) *NotificationService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &NotificationService{store: store, notifier: notifier}
}

// Emit persists a notification and broadcasts it over SSE. The
// broadcast never fails the emit.
func (s *NotificationService) Emit(userID int, t models.NotificationType, message string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  userID,
		Type:    t,
		Message: message,
	}
	if err := s.store.Create(n); err != nil {
		return nil, err
	}

	s.notifier.NotifyNotificationCreated(n)

	log.Debug().
		Int("user_id", userID).
		Str("type", string(t)).
		Msg("notification emitted")
	return n, nil
}
