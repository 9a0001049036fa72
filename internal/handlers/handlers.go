// Package handlers contains the HTTP handlers for the LineUp API.
package handlers

import (
	"gorm.io/gorm"

	"github.com/lineup-social/backend/internal/auth"
	"github.com/lineup-social/backend/internal/comments"
	"github.com/lineup-social/backend/internal/feed"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db       *gorm.DB
	auth     *auth.Service
	feed     *feed.Paginator
	selector *feed.Selector
	comments *comments.Service
	rt       *realtime.Handler
	storage  storage.Uploader
}

// NewHandlers creates a new handlers instance wired to the feed and comment
// services plus the database for the remaining CRUD surface.
func NewHandlers(db *gorm.DB, authService *auth.Service) *Handlers {
	feedGateway := feed.NewGormGateway(db)
	return &Handlers{
		db:       db,
		auth:     authService,
		feed:     feed.NewPaginator(feedGateway),
		selector: feed.NewSelector(feedGateway),
		comments: comments.NewService(comments.NewGormGateway(db)),
	}
}

// SetRealtimeHandler sets the WebSocket handler for live notifications
func (h *Handlers) SetRealtimeHandler(rt *realtime.Handler) {
	h.rt = rt
}

// SetStorage sets the attachment storage backend
func (h *Handlers) SetStorage(uploader storage.Uploader) {
	h.storage = uploader
}
