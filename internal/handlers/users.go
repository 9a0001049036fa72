package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/auth"
	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/util"
)

// Register creates a new account and returns a JWT.
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch err {
		case auth.ErrUserExists, auth.ErrUsernameExists:
			util.RespondWithAPIError(c, errors.AlreadyExists("user"))
		default:
			util.RespondInternalError(c, "Failed to register")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates a member and returns a JWT.
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		switch err {
		case auth.ErrUserNotFound, auth.ErrInvalidCredentials:
			util.RespondUnauthorized(c, "invalid email or password")
		default:
			util.RespondInternalError(c, "Failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe returns the authenticated member's profile.
// GET /api/v1/users/me
func (h *Handlers) GetMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUser returns a member's public profile.
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe updates the caller's profile fields.
// PUT /api/v1/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string   `json:"display_name,omitempty"`
		Bio         *string   `json:"bio,omitempty"`
		Location    *string   `json:"location,omitempty"`
		Instruments *[]string `json:"instruments,omitempty"`
		Genres      *[]string `json:"genres,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.DisplayName != nil {
		if *req.DisplayName == "" {
			util.RespondValidationError(c, "display_name", "display name cannot be empty")
			return
		}
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	if req.Instruments != nil {
		user.Instruments = models.StringArray(*req.Instruments)
		updates["instruments"] = user.Instruments
	}
	if req.Genres != nil {
		user.Genres = models.StringArray(*req.Genres)
		updates["genres"] = user.Genres
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchUsers finds members by username or display name.
// GET /api/v1/users/search?q=...
func (h *Handlers) SearchUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := "%" + query + "%"
	var users []models.User
	if err := h.db.
		Where("username LIKE ? OR display_name LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		util.RespondInternalError(c, "Failed to search users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"count": len(users)},
	})
}

// UploadProfilePicture stores a new avatar for the caller.
// POST /api/v1/users/me/avatar
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if h.storage == nil {
		util.RespondInternalError(c, "Storage is not configured")
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	result, err := h.storage.UploadProfilePicture(c.Request.Context(), file, header, userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to upload avatar")
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("avatar_url", result.URL).Error; err != nil {
		util.RespondInternalError(c, "Failed to save avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}

// PresignAttachment returns a presigned S3 URL so the client can upload a
// post attachment directly.
// POST /api/v1/uploads/presign
func (h *Handlers) PresignAttachment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if h.storage == nil {
		util.RespondInternalError(c, "Storage is not configured")
		return
	}

	var req struct {
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	presigned, err := h.storage.PresignUpload(c.Request.Context(), userID, req.Filename, 15*time.Minute)
	if err != nil {
		util.RespondInternalError(c, "Failed to presign upload")
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload": presigned})
}
