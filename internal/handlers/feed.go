package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lineup-social/backend/internal/middleware"
	"github.com/lineup-social/backend/internal/util"
)

// GetFeed returns one component of the member's home feed.
// GET /api/v1/feed?component=posts|recommendations&cursor=...&limit=...
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	component := c.DefaultQuery("component", "posts")
	limit := util.ParseInt(c.Query("limit"), 0)

	switch component {
	case "posts":
		cursor, err := util.ParseCursor(c.Query("cursor"))
		if err != nil {
			util.RespondValidationError(c, "cursor", "cursor must be an RFC3339 timestamp")
			return
		}

		started := time.Now()
		page, err := h.feed.Page(c.Request.Context(), userID, cursor, limit)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		middleware.RecordFeedGeneration("posts", time.Since(started))

		resp := gin.H{
			"posts": page.Posts,
			"meta": gin.H{
				"count":    len(page.Posts),
				"has_more": page.NextCursor != "",
			},
		}
		// Absent on the last page, not empty
		if page.NextCursor != "" {
			resp["next_cursor"] = page.NextCursor
		}
		c.JSON(http.StatusOK, resp)

	case "recommendations":
		started := time.Now()
		recs, err := h.selector.Recommend(c.Request.Context(), userID, limit)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		middleware.RecordFeedGeneration("recommendations", time.Since(started))
		middleware.RecordRecommendations("request", len(recs))

		c.JSON(http.StatusOK, gin.H{
			"recommendations": recs,
			"meta": gin.H{
				"count": len(recs),
			},
		})

	default:
		util.RespondValidationError(c, "component", "component must be posts or recommendations")
	}
}
