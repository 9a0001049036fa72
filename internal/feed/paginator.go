package feed

import (
	"context"
	"time"

	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
)

const (
	// DefaultLimit is used when the caller doesn't supply one
	DefaultLimit = 20
	// MaxLimit bounds a single feed page
	MaxLimit = 50
)

// FeedPost is a post zipped with its engagement counters
type FeedPost struct {
	models.Post
	EngagementCounters
}

// Page is one cursor-paginated slice of the feed. NextCursor is the
// created_at of the last returned post, used as an exclusive upper bound for
// the next page; it is absent on the final page.
type Page struct {
	Posts      []FeedPost `json:"posts"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Paginator assembles a viewer's connection-scoped, reverse-chronological
// feed page
type Paginator struct {
	gateway    Gateway
	aggregator *Aggregator
}

// NewPaginator creates a paginator over the given gateway
func NewPaginator(gateway Gateway) *Paginator {
	return &Paginator{
		gateway:    gateway,
		aggregator: NewAggregator(gateway),
	}
}

// ClampLimit normalizes a requested page size. Zero means "use the default";
// anything else outside [1, MaxLimit] is a caller error.
func ClampLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, errors.ValidationError("limit", "limit must be between 1 and 50")
	}
	return limit, nil
}

// Page returns one feed page for the viewer. A viewer with no accepted
// connections gets an empty page without any further gateway calls.
//
// The cursor is a raw timestamp compared exclusively; two posts sharing the
// exact created_at at a page boundary can be skipped. Kept as-is pending a
// decision on an id tie-break.
func (p *Paginator) Page(ctx context.Context, viewerID string, cursor *time.Time, limit int) (*Page, error) {
	limit, err := ClampLimit(limit)
	if err != nil {
		return nil, err
	}

	edges, err := p.gateway.AcceptedConnections(ctx, viewerID)
	if err != nil {
		return nil, errors.DataUnavailable("resolve connections for "+viewerID, err)
	}

	authorIDs := followedAuthors(edges, viewerID)
	if len(authorIDs) == 0 {
		return &Page{Posts: []FeedPost{}}, nil
	}

	// Fetch one extra row to learn whether another page exists
	posts, err := p.gateway.PostsByAuthors(ctx, authorIDs, cursor, limit+1)
	if err != nil {
		return nil, errors.DataUnavailable("fetch feed posts for "+viewerID, err)
	}

	var nextCursor string
	if len(posts) > limit {
		posts = posts[:limit]
		nextCursor = posts[len(posts)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	postIDs := make([]string, len(posts))
	for i, post := range posts {
		postIDs[i] = post.ID
	}

	counters, err := p.aggregator.Aggregate(ctx, postIDs, viewerID)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Posts:      make([]FeedPost, len(posts)),
		NextCursor: nextCursor,
	}
	for i, post := range posts {
		page.Posts[i] = FeedPost{
			Post:               post,
			EngagementCounters: counters[post.ID],
		}
	}

	return page, nil
}

// followedAuthors collects the other end of every accepted edge touching the
// viewer. The edge is undirected for feed purposes.
func followedAuthors(edges []ConnectionEdge, viewerID string) []string {
	seen := make(map[string]bool, len(edges))
	authors := make([]string, 0, len(edges))
	for _, edge := range edges {
		var other string
		switch viewerID {
		case edge.RequesterID:
			other = edge.RecipientID
		case edge.RecipientID:
			other = edge.RequesterID
		default:
			continue
		}
		if other == "" || seen[other] {
			continue
		}
		seen[other] = true
		authors = append(authors, other)
	}
	return authors
}
