package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/operantis/backoffice-api/internal/repository"
	"github.com/operantis/backoffice-api/internal/utils"
)

// NotificationHandler handles notification HTTP endpoints.
type NotificationHandler struct {
	notificationRepo *repository.NotificationRepository
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(notificationRepo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// GetNotifications handles GET /api/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := c.GetInt("user_id")

	notifications, err := h.notificationRepo.GetByUser(userID, false)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Notifications retrieved", notifications)
}

// GetUnreadNotifications handles GET /api/notifications/unread
func (h *NotificationHandler) GetUnreadNotifications(c *gin.Context) {
	userID := c.GetInt("user_id")

	notifications, err := h.notificationRepo.GetByUser(userID, true)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Unread notifications retrieved", notifications)
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid notification id")
		return
	}
	userID := c.GetInt("user_id")

	notification, err := h.notificationRepo.MarkRead(id, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Notification marked as read", notification)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt("user_id")

	if err := h.notificationRepo.MarkAllRead(userID); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "All notifications marked as read", nil)
}

// DeleteNotification handles DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid notification id")
		return
	}
	userID := c.GetInt("user_id")

	if err := h.notificationRepo.Delete(id, userID); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Notification deleted", nil)
}

func (h *NotificationHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrNotificationNotFound:
		utils.Error(c, 404, "NOTIFICATION_NOT_FOUND", "Notification not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
