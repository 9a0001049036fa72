package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/util"
)

// LikePost records a like on a post. Liking twice is a no-op conflict.
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var existing models.PostLike
	if err := h.db.Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error; err == nil {
		util.RespondConflict(c, "like")
		return
	} else if err != gorm.ErrRecordNotFound {
		util.RespondInternalError(c, "Failed to check like")
		return
	}

	like := models.PostLike{PostID: postID, UserID: userID}
	if err := h.db.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "Failed to like post")
		return
	}

	if post.UserID != userID {
		h.notify(post.UserID, userID, models.NotificationLike, postID)

		if h.rt != nil {
			var liker models.User
			if err := h.db.First(&liker, "id = ?", userID).Error; err == nil {
				h.rt.NotifyEngagement(post.UserID, realtime.MessageTypePostLiked, &realtime.EngagementPayload{
					PostID:   postID,
					UserID:   userID,
					Username: liker.Username,
				})
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"status": "liked"})
}

// UnlikePost removes the caller's like from a post.
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := h.db.Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to unlike post")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "like")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unliked"})
}

// BookmarkPost saves a post to the caller's bookmarks.
// POST /api/v1/posts/:id/bookmark
func (h *Handlers) BookmarkPost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var existing models.Bookmark
	if err := h.db.Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error; err == nil {
		util.RespondConflict(c, "bookmark")
		return
	} else if err != gorm.ErrRecordNotFound {
		util.RespondInternalError(c, "Failed to check bookmark")
		return
	}

	bookmark := models.Bookmark{PostID: postID, UserID: userID}
	if err := h.db.Create(&bookmark).Error; err != nil {
		util.RespondInternalError(c, "Failed to bookmark post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "bookmarked"})
}

// UnbookmarkPost removes a post from the caller's bookmarks.
// DELETE /api/v1/posts/:id/bookmark
func (h *Handlers) UnbookmarkPost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := h.db.Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to remove bookmark")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "bookmark")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unbookmarked"})
}

// GetBookmarks lists the caller's bookmarked posts, newest bookmark first.
// GET /api/v1/bookmarks
func (h *Handlers) GetBookmarks(c *gin.Context) {
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

	var posts []models.Post
	if err := h.db.
		Preload("User").
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to get bookmarks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta":  gin.H{"count": len(posts)},
	})
}
