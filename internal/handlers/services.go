package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/models"
	"github.com/lineup-social/backend/internal/util"
)

// CreateServiceListing publishes a paid-service listing (lessons, mixing,
// session work).
// POST /api/v1/services
func (h *Handlers) CreateServiceListing(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title       string  `json:"title" binding:"required,min=1,max=200"`
		Description string  `json:"description" binding:"max=5000"`
		Category    string  `json:"category" binding:"required,max=32"`
		Rate        float64 `json:"rate" binding:"gte=0"`
		Currency    string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	listing := models.ServiceListing{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Rate:        req.Rate,
		Currency:    req.Currency,
		Active:      true,
	}
	if listing.Currency == "" {
		listing.Currency = "USD"
	}

	if err := h.db.Create(&listing).Error; err != nil {
		util.RespondInternalError(c, "Failed to create listing")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// GetServiceListings browses active listings, optionally by category.
// GET /api/v1/services?category=...
func (h *Handlers) GetServiceListings(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
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

	query := h.db.
		Preload("User").
		Where("active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var listings []models.ServiceListing
	if err := query.Find(&listings).Error; err != nil {
		util.RespondInternalError(c, "Failed to get listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"meta":     gin.H{"count": len(listings)},
	})
}

// UpdateServiceListing edits a listing owned by the caller.
// PUT /api/v1/services/:id
func (h *Handlers) UpdateServiceListing(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var listing models.ServiceListing
	if err := h.db.First(&listing, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "listing")
		return
	}
	if listing.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own listings")
		return
	}

	var req struct {
		Title       *string  `json:"title,omitempty"`
		Description *string  `json:"description,omitempty"`
		Category    *string  `json:"category,omitempty"`
		Rate        *float64 `json:"rate,omitempty"`
		Currency    *string  `json:"currency,omitempty"`
		Active      *bool    `json:"active,omitempty"`
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
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Rate != nil {
		if *req.Rate < 0 {
			util.RespondValidationError(c, "rate", "rate cannot be negative")
			return
		}
		updates["rate"] = *req.Rate
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if err := h.db.Model(&listing).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// DeleteServiceListing removes a listing owned by the caller.
// DELETE /api/v1/services/:id
func (h *Handlers) DeleteServiceListing(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var listing models.ServiceListing
	if err := h.db.First(&listing, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "listing")
		return
	}
	if listing.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own listings")
		return
	}

	if err := h.db.Delete(&listing).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
