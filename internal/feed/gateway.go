package feed

import (
	"context"
	"time"

	"github.com/lineup-social/backend/internal/models"
)

// ConnectionEdge is one accepted connection, as fetched from the store
type ConnectionEdge struct {
	RequesterID string
	RecipientID string
}

// EngagementRow is a single like or bookmark row
type EngagementRow struct {
	PostID string
	UserID string
}

// CommentRow is a single comment row; only the post id matters for counting
type CommentRow struct {
	PostID string
}

// EngagementRows bundles the raw rows behind a post id set
type EngagementRows struct {
	Likes     []EngagementRow
	Bookmarks []EngagementRow
	Comments  []CommentRow
}

// Gateway is the narrow read interface the feed core depends on. The store
// owns ordering and visibility; implementations must return posts descending
// by created_at and comments ascending.
type Gateway interface {
	// AcceptedConnections returns every accepted edge touching userID,
	// regardless of which side the user is on.
	AcceptedConnections(ctx context.Context, userID string) ([]ConnectionEdge, error)

	// PostsByAuthors returns posts authored by any of authorIDs, newest
	// first, strictly older than cursor when cursor is non-nil.
	PostsByAuthors(ctx context.Context, authorIDs []string, cursor *time.Time, limit int) ([]models.Post, error)

	// EngagementRows returns all like, bookmark, and comment rows for the
	// given posts.
	EngagementRows(ctx context.Context, postIDs []string) (EngagementRows, error)

	// RecentRequestPosts returns request-type posts created at or after
	// since, excluding the given author, newest first.
	RecentRequestPosts(ctx context.Context, excludeUserID string, since time.Time, limit int) ([]models.Post, error)
}
