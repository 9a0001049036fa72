package feed

import (
	"context"

	"github.com/lineup-social/backend/internal/errors"
)

// EngagementCounters holds per-post engagement derived from raw rows. It is
// rebuilt on every request; nothing here is cached.
type EngagementCounters struct {
	LikesCount     int  `json:"likes_count"`
	CommentsCount  int  `json:"comments_count"`
	BookmarksCount int  `json:"bookmarks_count"`
	HasLiked       bool `json:"has_liked"`
	HasBookmarked  bool `json:"has_bookmarked"`
}

// Aggregator combines raw like/bookmark/comment rows into per-post counters
// and per-viewer interaction flags
type Aggregator struct {
	gateway Gateway
}

// NewAggregator creates an aggregator over the given gateway
func NewAggregator(gateway Gateway) *Aggregator {
	return &Aggregator{gateway: gateway}
}

// Aggregate returns counters for every id in postIDs. Posts with no rows map
// to the zero counters, never a missing key. Any fetch failure fails the
// whole request: under-counting likes is worse than an error.
func (a *Aggregator) Aggregate(ctx context.Context, postIDs []string, viewerID string) (map[string]EngagementCounters, error) {
	counters := make(map[string]EngagementCounters, len(postIDs))
	for _, id := range postIDs {
		counters[id] = EngagementCounters{}
	}
	if len(postIDs) == 0 {
		return counters, nil
	}

	rows, err := a.gateway.EngagementRows(ctx, postIDs)
	if err != nil {
		return nil, errors.DataUnavailable("fetch engagement rows", err)
	}

	for _, row := range rows.Likes {
		c, ok := counters[row.PostID]
		if !ok {
			continue
		}
		c.LikesCount++
		if row.UserID == viewerID {
			c.HasLiked = true
		}
		counters[row.PostID] = c
	}

	for _, row := range rows.Bookmarks {
		c, ok := counters[row.PostID]
		if !ok {
			continue
		}
		c.BookmarksCount++
		if row.UserID == viewerID {
			c.HasBookmarked = true
		}
		counters[row.PostID] = c
	}

	for _, row := range rows.Comments {
		c, ok := counters[row.PostID]
		if !ok {
			continue
		}
		c.CommentsCount++
		counters[row.PostID] = c
	}

	return counters, nil
}
