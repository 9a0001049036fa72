package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/lineup-social/backend/internal/auth"
	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub  *Hub
	auth *auth.Service
	db   *gorm.DB
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authService *auth.Service, db *gorm.DB) *Handler {
	return &Handler{
		hub:  hub,
		auth: authService,
		db:   db,
	}
}

// HandleWebSocket upgrades the HTTP connection and runs the client pumps.
// Authentication is via JWT in the token query param or Authorization header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Warn("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": "invalid or missing token",
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checking is handled by the CORS layer
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to LineUp!",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"username":    user.Username,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects
}

func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := c.Query("token")

	if header := c.GetHeader("Authorization"); header != "" {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	}

	return h.auth.ValidateToken(tokenString)
}

// HandleMetrics returns WebSocket metrics for monitoring
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket":    h.hub.GetMetrics(),
		"online_users": h.hub.GetOnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus checks if specific users are online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses := make(map[string]bool)
	for _, userID := range req.UserIDs {
		statuses[userID] = h.hub.IsUserOnline(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// RegisterDefaultHandlers wires the built-in message handlers
func (h *Handler) RegisterDefaultHandlers() {
	// Typing indicators are relayed to the other conversation members
	h.hub.RegisterHandler(MessageTypeUserTyping, h.relayTyping(MessageTypeUserTyping))
	h.hub.RegisterHandler(MessageTypeUserStopTyping, h.relayTyping(MessageTypeUserStopTyping))
}

func (h *Handler) relayTyping(msgType string) MessageHandler {
	return func(client *Client, msg *Message) error {
		var typing TypingPayload
		if err := msg.ParsePayload(&typing); err != nil {
			return err
		}

		typing.UserID = client.UserID
		typing.Username = client.Username
		typing.Timestamp = time.Now().UnixMilli()

		for _, memberID := range h.conversationMembers(typing.ConversationID, client.UserID) {
			h.hub.SendToUser(memberID, NewMessage(msgType, typing))
		}
		return nil
	}
}

// conversationMembers returns the other members of a conversation
func (h *Handler) conversationMembers(conversationID, exceptUserID string) []string {
	if h.db == nil || conversationID == "" {
		return nil
	}

	var memberIDs []string
	err := h.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, exceptUserID).
		Pluck("user_id", &memberIDs).Error
	if err != nil {
		logger.Log.Warn("failed to load conversation members",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return nil
	}
	return memberIDs
}

// NotifyNewPost announces a new post to connected followers
func (h *Handler) NotifyNewPost(followerIDs []string, payload *NewPostPayload) {
	msg := NewMessage(MessageTypeNewPost, payload)
	for _, followerID := range followerIDs {
		h.hub.SendToUser(followerID, msg)
	}
}

// NotifyEngagement sends a like/bookmark event to the post owner
func (h *Handler) NotifyEngagement(ownerID, msgType string, payload *EngagementPayload) {
	h.hub.SendToUser(ownerID, NewMessage(msgType, payload))
}

// NotifyComment sends a new comment event to the post owner
func (h *Handler) NotifyComment(ownerID string, payload *CommentPayload) {
	h.hub.SendToUser(ownerID, NewMessage(MessageTypeNewComment, payload))
}

// NotifyConnection sends a connection request or acceptance event
func (h *Handler) NotifyConnection(userID, msgType string, payload *ConnectionPayload) {
	h.hub.SendToUser(userID, NewMessage(msgType, payload))
}

// NotifyDirectMessage pushes a direct message to a conversation member
func (h *Handler) NotifyDirectMessage(userID string, payload *DirectMessagePayload) {
	h.hub.SendToUser(userID, NewMessage(MessageTypeDirectMessage, payload))
}

// NotifyNotification pushes a notification in real time
func (h *Handler) NotifyNotification(userID string, payload *NotificationPayload) {
	h.hub.SendToUser(userID, NewMessage(MessageTypeNotification, payload))
}

// UpdateNotificationCount pushes the new unread notification count
func (h *Handler) UpdateNotificationCount(userID string, unread int) {
	h.hub.SendToUser(userID, NewMessage(MessageTypeNotificationCount, NotificationCountPayload{
		UnreadCount: unread,
		Timestamp:   time.Now().UnixMilli(),
	}))
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for external access
func (h *Handler) GetHub() *Hub {
	return h.hub
}
