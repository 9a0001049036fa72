package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
)

// StartConversation opens (or returns) a direct conversation with another
// member. Direct conversations are deduplicated per member pair.
// POST /api/v1/conversations
func (h *Handlers) StartConversation(c *gin.Context) {
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
		util.RespondValidationError(c, "recipient_id", "You cannot message yourself")
		return
	}

	var recipient models.User
	if err := h.db.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	// Reuse an existing direct conversation between the two members
	var existingID string
	h.db.Raw(`
		SELECT cm1.conversation_id FROM conversation_members cm1
		JOIN conversation_members cm2 ON cm1.conversation_id = cm2.conversation_id
		JOIN conversations conv ON conv.id = cm1.conversation_id
		WHERE cm1.user_id = ? AND cm2.user_id = ? AND conv.is_group = ?
		LIMIT 1`, userID, req.RecipientID, false).Scan(&existingID)

	if existingID != "" {
		var conversation models.Conversation
		if err := h.db.Preload("Members.User").First(&conversation, "id = ?", existingID).Error; err == nil {
			c.JSON(http.StatusOK, gin.H{"conversation": conversation})
			return
		}
	}

	conversation := models.Conversation{IsGroup: false}
	if err := h.db.Create(&conversation).Error; err != nil {
		util.RespondInternalError(c, "Failed to create conversation")
		return
	}

	members := []models.ConversationMember{
		{ConversationID: conversation.ID, UserID: userID},
		{ConversationID: conversation.ID, UserID: req.RecipientID},
	}
	if err := h.db.Create(&members).Error; err != nil {
		util.RespondInternalError(c, "Failed to add conversation members")
		return
	}

	if err := h.db.Preload("Members.User").First(&conversation, "id = ?", conversation.ID).Error; err == nil {
		c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
}

// GetConversations lists the caller's conversations, most recent first.
// GET /api/v1/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var conversations []models.Conversation
	if err := h.db.
		Preload("Members.User").
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&conversations).Error; err != nil {
		util.RespondInternalError(c, "Failed to get conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": conversations,
		"meta":          gin.H{"count": len(conversations)},
	})
}

// SendMessage posts a message into a conversation the caller belongs to.
// POST /api/v1/conversations/:id/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	conversationID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !h.isConversationMember(conversationID, userID) {
		util.RespondForbidden(c, "You are not part of this conversation")
		return
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        req.Content,
	}
	if err := h.db.Create(&message).Error; err != nil {
		util.RespondInternalError(c, "Failed to send message")
		return
	}

	h.db.Model(&models.Conversation{}).Where("id = ?", conversationID).
		Update("updated_at", time.Now())

	if err := h.db.Preload("Sender").First(&message, "id = ?", message.ID).Error; err == nil {
		h.deliverMessage(conversationID, message)
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// deliverMessage notifies and pushes the message to the other members
func (h *Handlers) deliverMessage(conversationID string, message models.Message) {
	var memberIDs []string
	if err := h.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, message.SenderID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		return
	}

	for _, memberID := range memberIDs {
		h.notify(memberID, message.SenderID, models.NotificationMessage, message.ID)

		if h.rt != nil {
			h.rt.NotifyDirectMessage(memberID, &realtime.DirectMessagePayload{
				MessageID:      message.ID,
				ConversationID: conversationID,
				SenderID:       message.SenderID,
				SenderName:     message.Sender.Username,
				Content:        message.Content,
				CreatedAt:      message.CreatedAt.UnixMilli(),
			})
		}
	}
}

// GetMessages lists a conversation's messages, newest first.
// GET /api/v1/conversations/:id/messages
func (h *Handlers) GetMessages(c *gin.Context) {
	conversationID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if !h.isConversationMember(conversationID, userID) {
		util.RespondForbidden(c, "You are not part of this conversation")
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "50"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var messages []models.Message
	if err := h.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		util.RespondInternalError(c, "Failed to get messages")
		return
	}

	// Reading the thread advances the read marker
	now := time.Now()
	h.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", &now)

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"meta":     gin.H{"count": len(messages)},
	})
}

func (h *Handlers) isConversationMember(conversationID, userID string) bool {
	var count int64
	h.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count)
	return count > 0
}
