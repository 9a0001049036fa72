package feed

import (
	"context"
	"fmt"
	"time"

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

func (g *GormGateway) AcceptedConnections(ctx context.Context, userID string) ([]ConnectionEdge, error) {
	var connections []models.Connection
	err := g.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR recipient_id = ?)", models.ConnectionAccepted, userID, userID).
		Find(&connections).Error
	if err != nil {
		return nil, fmt.Errorf("accepted connections for %s: %w", userID, err)
	}

	edges := make([]ConnectionEdge, len(connections))
	for i, conn := range connections {
		edges[i] = ConnectionEdge{
			RequesterID: conn.RequesterID,
			RecipientID: conn.RecipientID,
		}
	}
	return edges, nil
}

func (g *GormGateway) PostsByAuthors(ctx context.Context, authorIDs []string, cursor *time.Time, limit int) ([]models.Post, error) {
	query := g.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("created_at < ?", *cursor)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("posts by authors: %w", err)
	}
	return posts, nil
}

// EngagementRows fetches like, bookmark, and comment rows with three
// concurrent queries. The tables are disjoint and the queries have no
// ordering dependency, so they fan out and are awaited jointly.
func (g *GormGateway) EngagementRows(ctx context.Context, postIDs []string) (EngagementRows, error) {
	type fetchResult struct {
		table string
		err   error
	}

	var rows EngagementRows
	resultsChan := make(chan fetchResult, 3)

	go func() {
		var likes []models.PostLike
		err := g.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&likes).Error
		if err == nil {
			rows.Likes = make([]EngagementRow, len(likes))
			for i, like := range likes {
				rows.Likes[i] = EngagementRow{PostID: like.PostID, UserID: like.UserID}
			}
		}
		resultsChan <- fetchResult{table: "post_likes", err: err}
	}()

	go func() {
		var bookmarks []models.Bookmark
		err := g.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&bookmarks).Error
		if err == nil {
			rows.Bookmarks = make([]EngagementRow, len(bookmarks))
			for i, bookmark := range bookmarks {
				rows.Bookmarks[i] = EngagementRow{PostID: bookmark.PostID, UserID: bookmark.UserID}
			}
		}
		resultsChan <- fetchResult{table: "bookmarks", err: err}
	}()

	go func() {
		var comments []models.Comment
		err := g.db.WithContext(ctx).Select("post_id").Where("post_id IN ?", postIDs).Find(&comments).Error
		if err == nil {
			rows.Comments = make([]CommentRow, len(comments))
			for i, comment := range comments {
				rows.Comments[i] = CommentRow{PostID: comment.PostID}
			}
		}
		resultsChan <- fetchResult{table: "comments", err: err}
	}()

	var firstErr error
	for i := 0; i < 3; i++ {
		result := <-resultsChan
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("engagement rows from %s: %w", result.table, result.err)
		}
	}
	if firstErr != nil {
		return EngagementRows{}, firstErr
	}

	return rows, nil
}

func (g *GormGateway) RecentRequestPosts(ctx context.Context, excludeUserID string, since time.Time, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := g.db.WithContext(ctx).
		Preload("User").
		Where("type = ? AND created_at >= ? AND user_id != ?", models.PostTypeRequest, since, excludeUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("recent request posts: %w", err)
	}
	return posts, nil
}
