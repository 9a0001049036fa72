package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray stores a list of strings as a JSON column so the same models
// work against Postgres and the SQLite test database
type StringArray []string

// User represents a LineUp musician account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"` // City/Country

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	AvatarURL   string      `json:"avatar_url"`
	Instruments StringArray `gorm:"type:text;serializer:json" json:"instruments"`
	Genres      StringArray `gorm:"type:text;serializer:json" json:"genres"`

	// Social stats (cached counters, not source of truth)
	ConnectionCount int `gorm:"default:0" json:"connection_count"`
	PostCount       int `gorm:"default:0" json:"post_count"`

	LastActiveAt *time.Time `json:"last_active_at"`

	IsAdmin bool `gorm:"default:false" json:"-"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// PostType distinguishes the three kinds of posts in the feed
type PostType string

const (
	PostTypeNote    PostType = "note"
	PostTypeRequest PostType = "request"
	PostTypeStory   PostType = "story"
)

// ValidPostType reports whether t is one of the known post types
func ValidPostType(t PostType) bool {
	switch t {
	case PostTypeNote, PostTypeRequest, PostTypeStory:
		return true
	}
	return false
}

// Post represents a note, request, or story shared by a musician
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Type        PostType `gorm:"type:varchar(16);not null;index" json:"type"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`

	// Request-specific fields
	Location        string `json:"location,omitempty"`
	PaidOpportunity bool   `gorm:"default:false" json:"paid_opportunity"`

	// Optional uploaded attachment (image/audio), served from object storage
	AttachmentURL string `json:"attachment_url,omitempty"`

	// GORM fields
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// ConnectionStatus represents the lifecycle of a connection request
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection is an edge between two musicians. Only accepted edges feed the
// timeline; the edge is undirected for feed purposes.
type Connection struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	RequesterID string `gorm:"not null;index" json:"requester_id"`
	Requester   User   `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RecipientID string `gorm:"not null;index" json:"recipient_id"`
	Recipient   User   `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	Status ConnectionStatus `gorm:"type:varchar(16);default:pending" json:"status"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// PostLike is a single user's like on a post
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index:idx_post_likes_post_user,unique" json:"post_id"`
	UserID string `gorm:"not null;index:idx_post_likes_post_user,unique" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Bookmark is a single user's bookmark on a post
type Bookmark struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index:idx_bookmarks_post_user,unique" json:"post_id"`
	UserID string `gorm:"not null;index:idx_bookmarks_post_user,unique" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// Comment represents a comment on a Post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Threading - parent_id is null for top-level comments
	ParentID *string  `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment `gorm:"foreignKey:ParentID" json:"-"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// NotificationType distinguishes what happened
type NotificationType string

const (
	NotificationLike               NotificationType = "like"
	NotificationComment            NotificationType = "comment"
	NotificationConnectionRequest  NotificationType = "connection_request"
	NotificationConnectionAccepted NotificationType = "connection_accepted"
	NotificationMessage            NotificationType = "message"
	NotificationMention            NotificationType = "mention"
)

// Notification is delivered to a user when someone interacts with them
type Notification struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"not null;index" json:"user_id"` // recipient
	ActorID string `gorm:"not null" json:"actor_id"`
	Actor   User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	ResourceID string           `json:"resource_id,omitempty"` // post/comment/connection id
	Read       bool             `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// Conversation groups messages between two or more users
type Conversation struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	IsGroup bool   `gorm:"default:false" json:"is_group"`
	Title   string `json:"title,omitempty"` // group conversations only

	Members []ConversationMember `gorm:"foreignKey:ConversationID" json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// ConversationMember links a user to a conversation
type ConversationMember struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ConversationID string `gorm:"not null;index:idx_conv_members_conv_user,unique" json:"conversation_id"`
	UserID         string `gorm:"not null;index:idx_conv_members_conv_user,unique" json:"user_id"`
	User           User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LastReadAt *time.Time `json:"last_read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *ConversationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Message is a single message within a conversation
type Message struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ConversationID string `gorm:"not null;index" json:"conversation_id"`
	SenderID       string `gorm:"not null" json:"sender_id"`
	Sender         User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ServiceListing is a marketplace offering (lessons, session work, mixing)
type ServiceListing struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Category    string  `gorm:"type:varchar(32);index" json:"category"`
	Rate        float64 `json:"rate"`
	Currency    string  `gorm:"type:varchar(8);default:USD" json:"currency"`
	Active      bool    `gorm:"default:true;index" json:"active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *ServiceListing) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
