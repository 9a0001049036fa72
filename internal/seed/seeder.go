package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/models"
)

// Seeder fills a development database with realistic-looking musicians,
// posts, and engagement so the feed has something to show
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var instruments = []string{
	"guitar", "bass", "drums", "keys", "vocals", "violin",
	"saxophone", "trumpet", "cello", "synths", "pedal steel",
}

var genres = []string{
	"indie rock", "jazz", "folk", "metal", "hip hop",
	"electronic", "country", "blues", "soul", "punk",
}

var serviceCategories = []string{"lessons", "session_work", "mixing", "mastering", "production"}

// requestTitles keeps seeded request posts looking like real gig ads
var requestTitles = []string{
	"Looking for a drummer for weekend gigs",
	"Need a bassist for studio session next week",
	"Vocalist wanted for indie project",
	"Seeking keys player for jazz trio",
	"Guitarist needed for wedding band",
	"Horn section for one-off recording",
}

// SeedDev seeds the development database with a connected social graph.
// Safe to run repeatedly only against a fresh database; it does not dedupe.
func (s *Seeder) SeedDev() error {
	start := time.Now()

	users, err := s.seedUsers(40)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	connections, err := s.seedConnections(users)
	if err != nil {
		return fmt.Errorf("seed connections: %w", err)
	}

	posts, err := s.seedPosts(users)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}

	if err := s.seedEngagement(users, posts); err != nil {
		return fmt.Errorf("seed engagement: %w", err)
	}

	if err := s.seedConversations(users); err != nil {
		return fmt.Errorf("seed conversations: %w", err)
	}

	listings, err := s.seedServiceListings(users)
	if err != nil {
		return fmt.Errorf("seed service listings: %w", err)
	}

	logger.Log.Info("Database seeded",
		zap.Int("users", len(users)),
		zap.Int("connections", connections),
		zap.Int("posts", len(posts)),
		zap.Int("listings", listings),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// seedUsers creates count musicians plus a fixed dev login
// (dev@lineup.local / password).
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	password := string(hash)

	users := make([]models.User, 0, count+1)

	dev := models.User{
		Email:        "dev@lineup.local",
		Username:     "dev",
		DisplayName:  "Dev Account",
		PasswordHash: &password,
		Bio:          "Local development account",
		Location:     "Austin, TX",
		Instruments:  models.StringArray{"guitar", "vocals"},
		Genres:       models.StringArray{"indie rock"},
	}
	if err := s.db.Create(&dev).Error; err != nil {
		return nil, err
	}
	users = append(users, dev)

	for i := 0; i < count; i++ {
		user := models.User{
			Email:        gofakeit.Email(),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName:  gofakeit.Name(),
			PasswordHash: &password,
			Bio:          gofakeit.HipsterSentence(8),
			Location:     fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			Instruments:  pickSome(instruments, 1, 3),
			Genres:       pickSome(genres, 1, 3),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// seedConnections wires each user to a handful of accepted peers and leaves
// a few requests pending
func (s *Seeder) seedConnections(users []models.User) (int, error) {
	type pair struct{ a, b string }
	seen := make(map[pair]bool)
	created := 0

	for i := range users {
		peers := rand.Intn(5) + 3
		for p := 0; p < peers; p++ {
			j := rand.Intn(len(users))
			if j == i {
				continue
			}
			key := pair{users[i].ID, users[j].ID}
			rev := pair{users[j].ID, users[i].ID}
			if seen[key] || seen[rev] {
				continue
			}
			seen[key] = true

			status := models.ConnectionAccepted
			if rand.Intn(10) == 0 {
				status = models.ConnectionPending
			}
			conn := models.Connection{
				RequesterID: users[i].ID,
				RecipientID: users[j].ID,
				Status:      status,
			}
			if err := s.db.Create(&conn).Error; err != nil {
				return created, err
			}
			if status == models.ConnectionAccepted {
				s.db.Model(&models.User{}).Where("id IN ?", []string{users[i].ID, users[j].ID}).
					UpdateColumn("connection_count", gorm.Expr("connection_count + 1"))
			}
			created++
		}
	}

	return created, nil
}

// seedPosts spreads notes, requests, and stories over the last two weeks so
// both the feed and the recommendation window have material
func (s *Seeder) seedPosts(users []models.User) ([]models.Post, error) {
	now := time.Now().UTC()
	var posts []models.Post

	for _, user := range users {
		count := rand.Intn(4) + 1
		for p := 0; p < count; p++ {
			post := models.Post{
				UserID:    user.ID,
				CreatedAt: gofakeit.DateRange(now.Add(-14*24*time.Hour), now),
			}

			switch rand.Intn(3) {
			case 0:
				post.Type = models.PostTypeNote
				post.Title = gofakeit.HipsterSentence(5)
				post.Description = gofakeit.HipsterSentence(15)
			case 1:
				post.Type = models.PostTypeRequest
				post.Title = requestTitles[rand.Intn(len(requestTitles))]
				post.Description = gofakeit.HipsterSentence(12)
				post.Location = fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country())
				post.PaidOpportunity = rand.Intn(2) == 0
			default:
				post.Type = models.PostTypeStory
				post.Title = "Show recap: " + gofakeit.Word()
				post.Description = gofakeit.HipsterSentence(20)
			}

			backdated := post.CreatedAt
			if err := s.db.Create(&post).Error; err != nil {
				return nil, err
			}
			if err := s.db.Model(&post).UpdateColumn("created_at", backdated).Error; err != nil {
				return nil, err
			}
			post.CreatedAt = backdated
			posts = append(posts, post)
		}
		s.db.Model(&user).UpdateColumn("post_count", count)
	}

	return posts, nil
}

// seedEngagement adds likes, bookmarks, and shallow comment threads
func (s *Seeder) seedEngagement(users []models.User, posts []models.Post) error {
	for _, post := range posts {
		likers := rand.Intn(6)
		for l := 0; l < likers; l++ {
			user := users[rand.Intn(len(users))]
			if user.ID == post.UserID {
				continue
			}
			like := models.PostLike{PostID: post.ID, UserID: user.ID}
			// Unique index rejects a repeat liker; skip and move on
			s.db.Create(&like)
		}

		if rand.Intn(4) == 0 {
			user := users[rand.Intn(len(users))]
			s.db.Create(&models.Bookmark{PostID: post.ID, UserID: user.ID})
		}

		if rand.Intn(3) != 0 {
			continue
		}
		commenter := users[rand.Intn(len(users))]
		root := models.Comment{
			PostID:  post.ID,
			UserID:  commenter.ID,
			Content: gofakeit.HipsterSentence(8),
		}
		if err := s.db.Create(&root).Error; err != nil {
			return err
		}
		if rand.Intn(2) == 0 {
			replier := users[rand.Intn(len(users))]
			reply := models.Comment{
				PostID:   post.ID,
				UserID:   replier.ID,
				Content:  gofakeit.HipsterSentence(6),
				ParentID: &root.ID,
			}
			if err := s.db.Create(&reply).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// seedConversations starts a few direct message threads
func (s *Seeder) seedConversations(users []models.User) error {
	threads := len(users) / 4
	for t := 0; t < threads; t++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		conv := models.Conversation{}
		if err := s.db.Create(&conv).Error; err != nil {
			return err
		}
		for _, uid := range []string{a.ID, b.ID} {
			if err := s.db.Create(&models.ConversationMember{ConversationID: conv.ID, UserID: uid}).Error; err != nil {
				return err
			}
		}

		messages := rand.Intn(6) + 2
		for m := 0; m < messages; m++ {
			sender := a.ID
			if m%2 == 1 {
				sender = b.ID
			}
			msg := models.Message{
				ConversationID: conv.ID,
				SenderID:       sender,
				Content:        gofakeit.HipsterSentence(7),
			}
			if err := s.db.Create(&msg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// seedServiceListings gives roughly a quarter of users a marketplace listing
func (s *Seeder) seedServiceListings(users []models.User) (int, error) {
	created := 0
	for _, user := range users {
		if rand.Intn(4) != 0 {
			continue
		}
		category := serviceCategories[rand.Intn(len(serviceCategories))]
		listing := models.ServiceListing{
			UserID:      user.ID,
			Title:       fmt.Sprintf("%s by %s", category, user.DisplayName),
			Description: gofakeit.HipsterSentence(12),
			Category:    category,
			Rate:        float64(rand.Intn(15)+2) * 10,
			Currency:    "USD",
			Active:      true,
		}
		if err := s.db.Create(&listing).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Clean removes all seeded rows. Order matters for foreign keys.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.Message{},
		&models.ConversationMember{},
		&models.Conversation{},
		&models.Notification{},
		&models.Comment{},
		&models.Bookmark{},
		&models.PostLike{},
		&models.ServiceListing{},
		&models.Post{},
		&models.Connection{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}
	logger.Log.Info("Seed data removed")
	return nil
}

// pickSome returns between min and max distinct entries from pool
func pickSome(pool []string, min, max int) models.StringArray {
	n := rand.Intn(max-min+1) + min
	picked := make(models.StringArray, 0, n)
	seen := make(map[int]bool)
	for len(picked) < n {
		i := rand.Intn(len(pool))
		if seen[i] {
			continue
		}
		seen[i] = true
		picked = append(picked, pool[i])
	}
	return picked
}
