package feed

import (
	"context"
	"time"

	"github.com/lineup-social/backend/internal/errors"
)

const (
	// DefaultRecommendationLimit is the number of request posts surfaced
	// when the caller doesn't ask for a specific count
	DefaultRecommendationLimit = 5

	// recommendationWindow is how far back the selector looks
	recommendationWindow = 7 * 24 * time.Hour
)

// Selector surfaces recent request-type posts from other musicians. A simpler
// sibling of the Paginator: no cursor, and engagement counters stay zeroed
// because relevance, not interaction state, drives this list.
type Selector struct {
	gateway Gateway
	now     func() time.Time
}

// NewSelector creates a selector over the given gateway
func NewSelector(gateway Gateway) *Selector {
	return &Selector{gateway: gateway, now: time.Now}
}

// Recommend returns up to limit request posts from the last 7 days, never
// including the viewer's own posts.
func (s *Selector) Recommend(ctx context.Context, viewerID string, limit int) ([]FeedPost, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	if limit > MaxLimit {
		return nil, errors.ValidationError("limit", "limit must be between 1 and 50")
	}

	since := s.now().Add(-recommendationWindow)
	posts, err := s.gateway.RecentRequestPosts(ctx, viewerID, since, limit)
	if err != nil {
		return nil, errors.DataUnavailable("fetch request posts", err)
	}

	recommendations := make([]FeedPost, len(posts))
	for i, post := range posts {
		recommendations[i] = FeedPost{Post: post}
	}
	return recommendations, nil
}
