package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
)

// notify records a notification for recipientID and pushes it over WebSocket
// if they're connected. Failures are logged, never surfaced to the caller:
// the triggering action already succeeded.
func (h *Handlers) notify(recipientID, actorID string, kind models.NotificationType, resourceID string) {
	notification := models.Notification{
		UserID:     recipientID,
		ActorID:    actorID,
		Type:       kind,
		ResourceID: resourceID,
	}

	if err := h.db.Create(&notification).Error; err != nil {
		logger.WarnWithFields("Failed to create notification", err)
		return
	}

	if h.rt == nil {
		return
	}

	var actor models.User
	title := ""
	if err := h.db.First(&actor, "id = ?", actorID).Error; err == nil {
		title = actor.DisplayName
	}

	h.rt.NotifyNotification(recipientID, &realtime.NotificationPayload{
		ID:        notification.ID,
		Type:      string(kind),
		Title:     title,
		Data:      map[string]interface{}{"resource_id": resourceID, "actor_id": actorID},
		CreatedAt: notification.CreatedAt.UnixMilli(),
	})

	var unread int64
	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", recipientID, false).
		Count(&unread).Error; err == nil {
		h.rt.UpdateNotificationCount(recipientID, int(unread))
	}
}

// GetNotifications lists the member's notifications, newest first.
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	if err := h.db.
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		util.RespondInternalError(c, "Failed to get notifications")
		return
	}

	var unread int64
	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		logger.WarnWithFields("Failed to count unread notifications", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"meta": gin.H{
			"count":        len(notifications),
			"unread_count": unread,
		},
	})
}

// MarkNotificationRead marks a single notification as read.
// PUT /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to update notification")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// MarkAllNotificationsRead marks every unread notification as read.
// PUT /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		util.RespondInternalError(c, "Failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
