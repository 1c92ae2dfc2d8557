package sse

import (
	"time"

	"github.com/operantis/backoffice-api/internal/models"
)

// Notifier is the interface services use to push notification events.
type Notifier interface {
	NotifyNotificationCreated(n *models.Notification)
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (nt *HubNotifier) NotifyNotificationCreated(n *models.Notification) {
	if nt.hub.ClientCount() == 0 {
		return
	}
	nt.hub.Broadcast(&NotificationEvent{
		Event:          EventNotificationCreated,
		NotificationID: n.ID,
		Type:           string(n.Type),
		Message:        n.Message,
		Timestamp:      time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (nt *NopNotifier) NotifyNotificationCreated(n *models.Notification) {}
