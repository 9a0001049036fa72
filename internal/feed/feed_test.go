package feed

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory Gateway that applies the same filtering and
// ordering contract as the real store, and counts calls so tests can assert
// short-circuit behavior.
type fakeGateway struct {
	edges     []ConnectionEdge
	posts     []models.Post
	likes     []EngagementRow
	bookmarks []EngagementRow
	comments  []CommentRow

	connectionsErr error
	postsErr       error
	engagementErr  error

	connectionsCalls int
	postsCalls       int
	engagementCalls  int
	recommendCalls   int
}

func (f *fakeGateway) AcceptedConnections(ctx context.Context, userID string) ([]ConnectionEdge, error) {
	f.connectionsCalls++
	if f.connectionsErr != nil {
		return nil, f.connectionsErr
	}
	var edges []ConnectionEdge
	for _, edge := range f.edges {
		if edge.RequesterID == userID || edge.RecipientID == userID {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

func (f *fakeGateway) PostsByAuthors(ctx context.Context, authorIDs []string, cursor *time.Time, limit int) ([]models.Post, error) {
	f.postsCalls++
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}

	var matched []models.Post
	for _, post := range f.posts {
		if !authors[post.UserID] {
			continue
		}
		if cursor != nil && !post.CreatedAt.Before(*cursor) {
			continue
		}
		matched = append(matched, post)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeGateway) EngagementRows(ctx context.Context, postIDs []string) (EngagementRows, error) {
	f.engagementCalls++
	if f.engagementErr != nil {
		return EngagementRows{}, f.engagementErr
	}
	wanted := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}

	var rows EngagementRows
	for _, row := range f.likes {
		if wanted[row.PostID] {
			rows.Likes = append(rows.Likes, row)
		}
	}
	for _, row := range f.bookmarks {
		if wanted[row.PostID] {
			rows.Bookmarks = append(rows.Bookmarks, row)
		}
	}
	for _, row := range f.comments {
		if wanted[row.PostID] {
			rows.Comments = append(rows.Comments, row)
		}
	}
	return rows, nil
}

func (f *fakeGateway) RecentRequestPosts(ctx context.Context, excludeUserID string, since time.Time, limit int) ([]models.Post, error) {
	f.recommendCalls++
	var matched []models.Post
	for _, post := range f.posts {
		if post.Type != models.PostTypeRequest {
			continue
		}
		if post.UserID == excludeUserID {
			continue
		}
		if post.CreatedAt.Before(since) {
			continue
		}
		matched = append(matched, post)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func makePosts(authorID string, n int, start time.Time) []models.Post {
	posts := make([]models.Post, n)
	for i := 0; i < n; i++ {
		posts[i] = models.Post{
			ID:        fmt.Sprintf("%s-post-%d", authorID, i),
			UserID:    authorID,
			Type:      models.PostTypeNote,
			Title:     fmt.Sprintf("post %d", i),
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return posts
}

func TestPaginationExhaustiveness(t *testing.T) {
	// 45 posts with distinct timestamps: chaining cursors must yield each
	// post exactly once, strictly descending.
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		edges: []ConnectionEdge{{RequesterID: "viewer", RecipientID: "author"}},
		posts: makePosts("author", 45, start),
	}
	paginator := NewPaginator(gw)

	seen := make(map[string]int)
	var lastTS *time.Time
	var cursor *time.Time
	pages := 0

	for {
		page, err := paginator.Page(context.Background(), "viewer", cursor, 10)
		require.NoError(t, err)
		pages++
		require.LessOrEqual(t, pages, 10, "pagination did not terminate")

		for _, post := range page.Posts {
			seen[post.ID]++
			if lastTS != nil {
				assert.True(t, post.CreatedAt.Before(*lastTS),
					"posts must be strictly descending across pages")
			}
			ts := post.CreatedAt
			lastTS = &ts
		}

		if page.NextCursor == "" {
			break
		}
		parsed, err := time.Parse(time.RFC3339Nano, page.NextCursor)
		require.NoError(t, err)
		cursor = &parsed
	}

	assert.Len(t, seen, 45)
	for id, count := range seen {
		assert.Equal(t, 1, count, "post %s returned more than once", id)
	}
}

func TestEmptyConnectionsShortCircuit(t *testing.T) {
	gw := &fakeGateway{posts: makePosts("stranger", 5, time.Now().Add(-time.Hour))}
	paginator := NewPaginator(gw)

	page, err := paginator.Page(context.Background(), "loner", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Empty(t, page.NextCursor)

	assert.Equal(t, 1, gw.connectionsCalls)
	assert.Equal(t, 0, gw.postsCalls, "post fetch must not run for a viewer with no connections")
	assert.Equal(t, 0, gw.engagementCalls)
}

func TestPageLimitValidation(t *testing.T) {
	paginator := NewPaginator(&fakeGateway{})

	for _, limit := range []int{-1, 51, 1000} {
		_, err := paginator.Page(context.Background(), "viewer", nil, limit)
		require.Error(t, err)
		apiErr, ok := err.(*errors.APIError)
		require.True(t, ok)
		assert.Equal(t, errors.ErrValidation, apiErr.Code)
	}

	// Zero means default
	gw := &fakeGateway{}
	_, err := NewPaginator(gw).Page(context.Background(), "viewer", nil, 0)
	require.NoError(t, err)
}

func TestEngagementDefaults(t *testing.T) {
	gw := &fakeGateway{}
	aggregator := NewAggregator(gw)

	counters, err := aggregator.Aggregate(context.Background(), []string{"quiet-post"}, "viewer")
	require.NoError(t, err)

	c, ok := counters["quiet-post"]
	require.True(t, ok, "every requested post id must be present in the result")
	assert.Equal(t, EngagementCounters{}, c)
}

func TestEngagementAggregation(t *testing.T) {
	gw := &fakeGateway{
		likes: []EngagementRow{
			{PostID: "p1", UserID: "viewer"},
			{PostID: "p1", UserID: "other"},
			{PostID: "p2", UserID: "other"},
		},
		bookmarks: []EngagementRow{
			{PostID: "p2", UserID: "viewer"},
		},
		comments: []CommentRow{
			{PostID: "p1"}, {PostID: "p1"}, {PostID: "p1"},
		},
	}
	aggregator := NewAggregator(gw)

	counters, err := aggregator.Aggregate(context.Background(), []string{"p1", "p2"}, "viewer")
	require.NoError(t, err)

	assert.Equal(t, EngagementCounters{
		LikesCount:    2,
		CommentsCount: 3,
		HasLiked:      true,
	}, counters["p1"])
	assert.Equal(t, EngagementCounters{
		LikesCount:     1,
		BookmarksCount: 1,
		HasBookmarked:  true,
	}, counters["p2"])
}

func TestEngagementFailureFailsWholeRequest(t *testing.T) {
	gw := &fakeGateway{
		edges:         []ConnectionEdge{{RequesterID: "viewer", RecipientID: "author"}},
		posts:         makePosts("author", 3, time.Now().Add(-time.Hour)),
		engagementErr: fmt.Errorf("connection reset"),
	}
	paginator := NewPaginator(gw)

	_, err := paginator.Page(context.Background(), "viewer", nil, 0)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrDataUnavailable, apiErr.Code)
}

func TestConnectionFailurePropagates(t *testing.T) {
	gw := &fakeGateway{connectionsErr: fmt.Errorf("timeout")}
	_, err := NewPaginator(gw).Page(context.Background(), "viewer", nil, 0)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrDataUnavailable, apiErr.Code)
}

func TestUndirectedConnectionEdges(t *testing.T) {
	// The viewer follows both sides of the edge regardless of direction.
	now := time.Now().UTC()
	gw := &fakeGateway{
		edges: []ConnectionEdge{
			{RequesterID: "viewer", RecipientID: "a"},
			{RequesterID: "b", RecipientID: "viewer"},
		},
		posts: []models.Post{
			{ID: "pa", UserID: "a", Type: models.PostTypeNote, CreatedAt: now.Add(-time.Minute)},
			{ID: "pb", UserID: "b", Type: models.PostTypeNote, CreatedAt: now.Add(-2 * time.Minute)},
			{ID: "pc", UserID: "c", Type: models.PostTypeNote, CreatedAt: now},
		},
	}
	page, err := NewPaginator(gw).Page(context.Background(), "viewer", nil, 0)
	require.NoError(t, err)

	ids := make([]string, len(page.Posts))
	for i, post := range page.Posts {
		ids[i] = post.ID
	}
	assert.Equal(t, []string{"pa", "pb"}, ids)
}

func TestRecommendationWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		posts: []models.Post{
			{ID: "fresh", UserID: "a", Type: models.PostTypeRequest, CreatedAt: now.Add(-6 * 24 * time.Hour)},
			{ID: "stale", UserID: "b", Type: models.PostTypeRequest, CreatedAt: now.Add(-8 * 24 * time.Hour)},
			{ID: "note", UserID: "c", Type: models.PostTypeNote, CreatedAt: now.Add(-time.Hour)},
		},
	}
	selector := NewSelector(gw)
	selector.now = func() time.Time { return now }

	recommendations, err := selector.Recommend(context.Background(), "viewer", 0)
	require.NoError(t, err)
	require.Len(t, recommendations, 1)
	assert.Equal(t, "fresh", recommendations[0].ID)

	// Engagement stays zeroed on recommendations.
	assert.Equal(t, EngagementCounters{}, recommendations[0].EngagementCounters)
	assert.Equal(t, 0, gw.engagementCalls)
}

func TestRecommendationSelfExclusion(t *testing.T) {
	now := time.Now().UTC()
	gw := &fakeGateway{
		posts: []models.Post{
			{ID: "mine", UserID: "viewer", Type: models.PostTypeRequest, CreatedAt: now.Add(-time.Hour)},
			{ID: "theirs", UserID: "other", Type: models.PostTypeRequest, CreatedAt: now.Add(-2 * time.Hour)},
		},
	}
	recommendations, err := NewSelector(gw).Recommend(context.Background(), "viewer", 0)
	require.NoError(t, err)
	require.Len(t, recommendations, 1)
	assert.Equal(t, "theirs", recommendations[0].ID)
}
