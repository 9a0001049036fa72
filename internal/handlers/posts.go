package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
	"gorm.io/gorm"
)

// CreatePost creates a new post.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Type            string `json:"type" binding:"required"`
		Title           string `json:"title" binding:"required,min=1,max=200"`
		Description     string `json:"description" binding:"max=5000"`
		Location        string `json:"location" binding:"max=200"`
		PaidOpportunity bool   `json:"paid_opportunity"`
		AttachmentURL   string `json:"attachment_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	postType := models.PostType(req.Type)
	if !models.ValidPostType(postType) {
		util.RespondValidationError(c, "type", "type must be note, request, or story")
		return
	}

	post := models.Post{
		UserID:          userID,
		Type:            postType,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		PaidOpportunity: req.PaidOpportunity,
		AttachmentURL:   req.AttachmentURL,
	}

	if err := h.db.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	h.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1"))

	if err := h.db.Preload("User").First(&post, "id = ?", post.ID).Error; err == nil && h.rt != nil {
		// Announce to connected members of the author's network
		go h.announcePost(post)
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// announcePost pushes a new-post event to the author's accepted connections
func (h *Handlers) announcePost(post models.Post) {
	var edges []models.Connection
	if err := h.db.
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?",
			post.UserID, post.UserID, models.ConnectionAccepted).
		Find(&edges).Error; err != nil {
		return
	}

	peerIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.RequesterID == post.UserID {
			peerIDs = append(peerIDs, edge.RecipientID)
		} else {
			peerIDs = append(peerIDs, edge.RequesterID)
		}
	}

	h.rt.NotifyNewPost(peerIDs, &realtime.NewPostPayload{
		PostID:   post.ID,
		UserID:   post.UserID,
		Username: post.User.Username,
		PostType: string(post.Type),
		Title:    post.Title,
		Location: post.Location,
	})
}

// GetPost returns a single post with its author.
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var post models.Post
	if err := h.db.Preload("User").First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdatePost updates a post owned by the caller.
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own posts")
		return
	}

	var req struct {
		Title           *string `json:"title,omitempty"`
		Description     *string `json:"description,omitempty"`
		Location        *string `json:"location,omitempty"`
		PaidOpportunity *bool   `json:"paid_opportunity,omitempty"`
		AttachmentURL   *string `json:"attachment_url,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != nil {
		if *req.Title == "" {
			util.RespondValidationError(c, "title", "title cannot be empty")
			return
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.PaidOpportunity != nil {
		updates["paid_opportunity"] = *req.PaidOpportunity
	}
	if req.AttachmentURL != nil {
		updates["attachment_url"] = *req.AttachmentURL
	}

	if err := h.db.Model(&post).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost soft-deletes a post owned by the caller.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own posts")
		return
	}

	if err := h.db.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	h.db.Model(&models.User{}).Where("id = ? AND post_count > 0", userID).
		UpdateColumn("post_count", gorm.Expr("post_count - 1"))

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetUserPosts lists a member's posts, newest first.
// GET /api/v1/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	targetID := c.Param("id")
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}

	var posts []models.Post
	if err := h.db.
		Preload("User").
		Where("user_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to get posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta":  gin.H{"count": len(posts)},
	})
}
