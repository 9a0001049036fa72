package comments

import (
	"context"
	"testing"
	"time"

	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func comment(id, postID string, parentID *string, offset time.Duration) models.Comment {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return models.Comment{
		ID:        id,
		PostID:    postID,
		UserID:    "author-" + id,
		Content:   "comment " + id,
		ParentID:  parentID,
		CreatedAt: base.Add(offset),
	}
}

func TestBuildTreeShape(t *testing.T) {
	// A(root) <- B <- C nests three levels deep.
	flat := []models.Comment{
		comment("A", "post", nil, 0),
		comment("B", "post", strptr("A"), time.Minute),
		comment("C", "post", strptr("B"), 2*time.Minute),
	}

	roots, err := BuildTree(flat)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	a := roots[0]
	assert.Equal(t, "A", a.ID)
	require.Len(t, a.Replies, 1)

	b := a.Replies[0]
	assert.Equal(t, "B", b.ID)
	require.Len(t, b.Replies, 1)

	c := b.Replies[0]
	assert.Equal(t, "C", c.ID)
	assert.Empty(t, c.Replies)
}

func TestBuildTreeOrphanDropped(t *testing.T) {
	flat := []models.Comment{
		comment("A", "post", nil, 0),
		comment("orphan", "post", strptr("gone"), time.Minute),
	}

	roots, err := BuildTree(flat)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "A", roots[0].ID)
	assert.Empty(t, roots[0].Replies, "orphan must not be promoted to root or attached anywhere")
}

func TestBuildTreeDuplicateIDRejected(t *testing.T) {
	flat := []models.Comment{
		comment("A", "post", nil, 0),
		comment("A", "post", nil, time.Minute),
	}

	_, err := BuildTree(flat)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)
}

func TestBuildTreeResortsOutOfOrderInput(t *testing.T) {
	// Rows deliberately arrive newest-first; the builder must restore
	// ascending order at every level.
	flat := []models.Comment{
		comment("root2", "post", nil, 3*time.Minute),
		comment("root1", "post", nil, 0),
		comment("reply2", "post", strptr("root1"), 2*time.Minute),
		comment("reply1", "post", strptr("root1"), time.Minute),
	}

	roots, err := BuildTree(flat)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "root1", roots[0].ID)
	assert.Equal(t, "root2", roots[1].ID)

	require.Len(t, roots[0].Replies, 2)
	assert.Equal(t, "reply1", roots[0].Replies[0].ID)
	assert.Equal(t, "reply2", roots[0].Replies[1].ID)
}

func TestBuildTreeEmpty(t *testing.T) {
	roots, err := BuildTree(nil)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

// fakeGateway is an in-memory comment store for service tests
type fakeGateway struct {
	posts    map[string]bool
	comments map[string]*models.Comment
	inserted int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		posts:    map[string]bool{},
		comments: map[string]*models.Comment{},
	}
}

func (f *fakeGateway) PostExists(ctx context.Context, postID string) (bool, error) {
	return f.posts[postID], nil
}

func (f *fakeGateway) CommentsForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var flat []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			flat = append(flat, *c)
		}
	}
	return flat, nil
}

func (f *fakeGateway) CommentByID(ctx context.Context, commentID string) (*models.Comment, error) {
	return f.comments[commentID], nil
}

func (f *fakeGateway) InsertComment(ctx context.Context, c *models.Comment) error {
	f.inserted++
	if c.ID == "" {
		c.ID = "generated"
	}
	f.comments[c.ID] = c
	return nil
}

func (f *fakeGateway) add(c models.Comment) {
	stored := c
	f.comments[c.ID] = &stored
}

func TestCreateReplyDepthRejected(t *testing.T) {
	gw := newFakeGateway()
	gw.posts["post"] = true
	gw.add(comment("A", "post", nil, 0))
	gw.add(comment("B", "post", strptr("A"), time.Minute))
	gw.add(comment("C", "post", strptr("B"), 2*time.Minute))

	service := NewService(gw)

	// C already sits at depth 2; replying to it would reach depth 3.
	_, err := service.Create(context.Background(), "post", "user", "too deep", strptr("C"))
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)
	assert.Equal(t, 0, gw.inserted, "rejection must happen before any insert")

	// Replying to B (depth 1) is still allowed.
	created, err := service.Create(context.Background(), "post", "user", "just deep enough", strptr("B"))
	require.NoError(t, err)
	assert.Equal(t, "B", *created.ParentID)
	assert.Equal(t, 1, gw.inserted)
}

func TestCreateOnMissingPost(t *testing.T) {
	service := NewService(newFakeGateway())

	_, err := service.Create(context.Background(), "nope", "user", "hello", nil)
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrNotFound, apiErr.Code)
}

func TestCreateParentFromOtherPost(t *testing.T) {
	gw := newFakeGateway()
	gw.posts["post"] = true
	gw.posts["other"] = true
	gw.add(comment("X", "other", nil, 0))

	_, err := NewService(gw).Create(context.Background(), "post", "user", "hi", strptr("X"))
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)
}

func TestCreateContentValidation(t *testing.T) {
	gw := newFakeGateway()
	gw.posts["post"] = true
	service := NewService(gw)

	_, err := service.Create(context.Background(), "post", "user", "", nil)
	require.Error(t, err)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'x'
	}
	_, err = service.Create(context.Background(), "post", "user", string(long), nil)
	require.Error(t, err)
	assert.Equal(t, 0, gw.inserted)
}

func TestTreeUnknownPostIsEmpty(t *testing.T) {
	service := NewService(newFakeGateway())

	roots, err := service.Tree(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, roots)
}
