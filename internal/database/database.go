package database

import (
	"fmt"
	"time"

	"github.com/lineup-social/backend/internal/config"
	"github.com/lineup-social/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens and configures the database connection. The handle is passed
// to the packages that need it; there is no package-level global.
func Connect(cfg *config.Config, debug bool) (*gorm.DB, error) {
	gormLogger := logger.Default
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Connection{},
		&models.PostLike{},
		&models.Bookmark{},
		&models.Comment{},
		&models.Notification{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.ServiceListing{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return createIndexes(db)
}

// createIndexes creates performance indexes
func createIndexes(db *gorm.DB) error {
	// User lookup
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Post indexes for feed queries
	db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_type_created ON posts (type, created_at DESC)")

	// Connection edges are looked up from both sides
	db.Exec("CREATE INDEX IF NOT EXISTS idx_connections_requester_status ON connections (requester_id, status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_connections_recipient_status ON connections (recipient_id, status)")
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair ON connections (requester_id, recipient_id) WHERE deleted_at IS NULL")

	// Engagement rows keyed by post
	db.Exec("CREATE INDEX IF NOT EXISTS idx_post_likes_post ON post_likes (post_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_bookmarks_post ON bookmarks (post_id)")

	// Comment threading
	db.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at ASC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL")

	// Notifications
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE read = false")

	// Messaging
	db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at ASC)")

	// Marketplace
	db.Exec("CREATE INDEX IF NOT EXISTS idx_service_listings_category_active ON service_listings (category) WHERE active = true")

	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
