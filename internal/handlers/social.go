package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
)

// RequestConnection sends a connection request to another member.
// POST /api/v1/connections
func (h *Handlers) RequestConnection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.RecipientID == userID {
		util.RespondValidationError(c, "recipient_id", "You cannot connect with yourself")
		return
	}

	var recipient models.User
	if err := h.db.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	// An edge in either direction blocks a new request
	var existing models.Connection
	err := h.db.Where(
		"(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
		userID, req.RecipientID, req.RecipientID, userID,
	).First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "connection")
		return
	}
	if err != gorm.ErrRecordNotFound {
		util.RespondInternalError(c, "Failed to check connection")
		return
	}

	connection := models.Connection{
		RequesterID: userID,
		RecipientID: req.RecipientID,
		Status:      models.ConnectionPending,
	}
	if err := h.db.Create(&connection).Error; err != nil {
		util.RespondInternalError(c, "Failed to create connection request")
		return
	}

	h.notify(req.RecipientID, userID, models.NotificationConnectionRequest, connection.ID)

	if h.rt != nil {
		var requester models.User
		if err := h.db.First(&requester, "id = ?", userID).Error; err == nil {
			h.rt.NotifyConnection(req.RecipientID, realtime.MessageTypeConnectionRequest, &realtime.ConnectionPayload{
				ConnectionID: connection.ID,
				UserID:       userID,
				Username:     requester.Username,
				Status:       string(models.ConnectionPending),
			})
		}
	}

	c.JSON(http.StatusCreated, gin.H{"connection": connection})
}

// RespondToConnection accepts or rejects a pending request addressed to the
// caller.
// PUT /api/v1/connections/:id
func (h *Handlers) RespondToConnection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	status := models.ConnectionStatus(req.Status)
	if status != models.ConnectionAccepted && status != models.ConnectionRejected {
		util.RespondValidationError(c, "status", "status must be accepted or rejected")
		return
	}

	var connection models.Connection
	if err := h.db.First(&connection, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "connection")
		return
	}
	if connection.RecipientID != userID {
		util.RespondForbidden(c, "Only the recipient can respond to a connection request")
		return
	}
	if connection.Status != models.ConnectionPending {
		util.RespondConflict(c, "connection")
		return
	}

	if err := h.db.Model(&connection).Update("status", status).Error; err != nil {
		util.RespondInternalError(c, "Failed to update connection")
		return
	}

	if status == models.ConnectionAccepted {
		h.db.Model(&models.User{}).
			Where("id IN ?", []string{connection.RequesterID, connection.RecipientID}).
			UpdateColumn("connection_count", gorm.Expr("connection_count + 1"))

		h.notify(connection.RequesterID, userID, models.NotificationConnectionAccepted, connection.ID)

		if h.rt != nil {
			var recipient models.User
			if err := h.db.First(&recipient, "id = ?", userID).Error; err == nil {
				h.rt.NotifyConnection(connection.RequesterID, realtime.MessageTypeConnectionAccepted, &realtime.ConnectionPayload{
					ConnectionID: connection.ID,
					UserID:       userID,
					Username:     recipient.Username,
					Status:       string(models.ConnectionAccepted),
				})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"connection": connection})
}

// GetConnections lists the caller's accepted connections.
// GET /api/v1/connections
func (h *Handlers) GetConnections(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var connections []models.Connection
	if err := h.db.
		Preload("Requester").
		Preload("Recipient").
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?",
			userID, userID, models.ConnectionAccepted).
		Order("updated_at DESC").
		Find(&connections).Error; err != nil {
		util.RespondInternalError(c, "Failed to get connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
		"meta":        gin.H{"count": len(connections)},
	})
}

// GetPendingConnections lists requests waiting on the caller.
// GET /api/v1/connections/pending
func (h *Handlers) GetPendingConnections(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var connections []models.Connection
	if err := h.db.
		Preload("Requester").
		Where("recipient_id = ? AND status = ?", userID, models.ConnectionPending).
		Order("created_at DESC").
		Find(&connections).Error; err != nil {
		util.RespondInternalError(c, "Failed to get pending connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
		"meta":        gin.H{"count": len(connections)},
	})
}

// RemoveConnection deletes an accepted connection in either direction.
// DELETE /api/v1/connections/:id
func (h *Handlers) RemoveConnection(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var connection models.Connection
	if err := h.db.First(&connection, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "connection")
		return
	}
	if connection.RequesterID != userID && connection.RecipientID != userID {
		util.RespondForbidden(c, "You are not part of this connection")
		return
	}

	wasAccepted := connection.Status == models.ConnectionAccepted

	if err := h.db.Delete(&connection).Error; err != nil {
		util.RespondInternalError(c, "Failed to remove connection")
		return
	}

	if wasAccepted {
		h.db.Model(&models.User{}).
			Where("id IN ? AND connection_count > 0", []string{connection.RequesterID, connection.RecipientID}).
			UpdateColumn("connection_count", gorm.Expr("connection_count - 1"))
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
