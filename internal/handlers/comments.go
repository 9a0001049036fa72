package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/middleware"
	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
)

// GetComments returns the full threaded comment tree for a post.
// GET /api/v1/comments?postId=...
func (h *Handlers) GetComments(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	postID := c.Query("postId")
	if postID == "" {
		util.RespondValidationError(c, "postId", "postId is required")
		return
	}

	started := time.Now()
	tree, err := h.comments.Tree(c.Request.Context(), postID)
	if err != nil {
		middleware.RecordCommentTreeBuild("error", time.Since(started))
		util.RespondWithError(c, err)
		return
	}
	middleware.RecordCommentTreeBuild("ok", time.Since(started))

	c.JSON(http.StatusOK, gin.H{
		"comments": tree,
		"meta": gin.H{
			"roots": len(tree),
		},
	})
}

// CreateComment creates a new comment or reply on a post.
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), postID, userID, req.Content, req.ParentID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	// Load the user for the response
	if err := h.db.Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load comment with user for post "+postID, err)
	}

	// Notify the post owner unless they are commenting on their own post
	var post models.Post
	if err := h.db.First(&post, "id = ?", postID).Error; err == nil && post.UserID != userID {
		h.notify(post.UserID, userID, models.NotificationComment, comment.ID)

		if h.rt != nil {
			parentID := ""
			if comment.ParentID != nil {
				parentID = *comment.ParentID
			}
			h.rt.NotifyComment(post.UserID, &realtime.CommentPayload{
				CommentID: comment.ID,
				PostID:    postID,
				ParentID:  parentID,
				UserID:    userID,
				Username:  comment.User.Username,
				Content:   comment.Content,
				CreatedAt: comment.CreatedAt.UnixMilli(),
			})
		}
	}

	h.notifyMentions(comment, post.UserID)

	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
	})
}

// notifyMentions alerts every @username named in the comment. The post owner
// is skipped since they already got a comment notification.
func (h *Handlers) notifyMentions(comment *models.Comment, postOwnerID string) {
	for _, username := range util.ExtractMentions(comment.Content) {
		var mentioned models.User
		if err := h.db.Where("LOWER(username) = ?", username).First(&mentioned).Error; err != nil {
			continue
		}
		if mentioned.ID == comment.UserID || mentioned.ID == postOwnerID {
			continue
		}
		h.notify(mentioned.ID, comment.UserID, models.NotificationMention, comment.ID)
	}
}
