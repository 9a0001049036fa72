package comments

import (
	"context"

	"github.com/lineup-social/backend/internal/errors"
	"github.com/lineup-social/backend/internal/models"
)

// Gateway is the read/write interface the comment service needs from the
// store. CommentsForPost must return rows ascending by created_at.
type Gateway interface {
	PostExists(ctx context.Context, postID string) (bool, error)
	CommentsForPost(ctx context.Context, postID string) ([]models.Comment, error)
	CommentByID(ctx context.Context, commentID string) (*models.Comment, error)
	InsertComment(ctx context.Context, comment *models.Comment) error
}

// Service builds comment trees and enforces the reply-depth bound at
// creation time
type Service struct {
	gateway Gateway
}

// NewService creates a comment service over the given gateway
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Tree returns the nested reply tree for a post. An unknown post yields an
// empty tree, not an error.
func (s *Service) Tree(ctx context.Context, postID string) ([]*Node, error) {
	flat, err := s.gateway.CommentsForPost(ctx, postID)
	if err != nil {
		return nil, errors.DataUnavailable("fetch comments for post "+postID, err)
	}
	return BuildTree(flat)
}

// Create validates and persists a new comment. Replying below depth 2 is
// rejected before anything is written; the parent-chain walk is bounded by
// the depth limit, so it costs at most three lookups.
func (s *Service) Create(ctx context.Context, postID, userID, content string, parentID *string) (*models.Comment, error) {
	if content == "" {
		return nil, errors.ValidationError("content", "content is required")
	}
	if len(content) > 2000 {
		return nil, errors.ValidationError("content", "content must be at most 2000 characters")
	}

	exists, err := s.gateway.PostExists(ctx, postID)
	if err != nil {
		return nil, errors.DataUnavailable("look up post "+postID, err)
	}
	if !exists {
		return nil, errors.NotFound("post")
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if err := s.checkReplyDepth(ctx, postID, *parentID); err != nil {
			return nil, err
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.gateway.InsertComment(ctx, comment); err != nil {
		return nil, errors.DataUnavailable("insert comment", err)
	}
	return comment, nil
}

// checkReplyDepth walks the parent chain upward counting hops. The new
// comment sits one level below its parent; reaching MaxDepth before a root
// means the reply would be too deep.
func (s *Service) checkReplyDepth(ctx context.Context, postID, parentID string) error {
	parent, err := s.gateway.CommentByID(ctx, parentID)
	if err != nil {
		return errors.DataUnavailable("look up parent comment "+parentID, err)
	}
	if parent == nil {
		return errors.NotFound("parent comment")
	}
	if parent.PostID != postID {
		return errors.ValidationError("parent_id", "parent comment belongs to a different post")
	}

	depth := 1
	current := parent
	for current.ParentID != nil {
		depth++
		if depth >= MaxDepth {
			return errors.ValidationError("parent_id", "maximum reply depth reached")
		}
		current, err = s.gateway.CommentByID(ctx, *current.ParentID)
		if err != nil {
			return errors.DataUnavailable("walk comment chain", err)
		}
		if current == nil {
			// Broken chain; treat the parent as a root.
			break
		}
	}
	return nil
}
