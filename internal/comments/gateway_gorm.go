package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/lineup-social/backend/internal/models"
	"gorm.io/gorm"
)

// GormGateway implements Gateway against the relational store
type GormGateway struct {
	db *gorm.DB
}

// NewGormGateway creates a gateway over an open database handle
func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) PostExists(ctx context.Context, postID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("post lookup %s: %w", postID, err)
	}
	return count > 0, nil
}

func (g *GormGateway) CommentsForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := g.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("comments for post %s: %w", postID, err)
	}
	return comments, nil
}

func (g *GormGateway) CommentByID(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := g.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("comment lookup %s: %w", commentID, err)
	}
	return &comment, nil
}

func (g *GormGateway) InsertComment(ctx context.Context, comment *models.Comment) error {
	if err := g.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}
