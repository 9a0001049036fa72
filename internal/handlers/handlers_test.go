package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lineup-social/backend/internal/auth"
	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/models"
)

// HandlerTestSuite runs the HTTP handlers against an in-memory database
type HandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers

	// currentUser is injected as the authenticated user for each request
	currentUser *models.User
}

func (s *HandlerTestSuite) SetupTest() {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	s.Require().NoError(db.AutoMigrate(
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
	))

	s.db = db
	s.handlers = NewHandlers(db, auth.NewService(db, []byte("test-secret")))

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if s.currentUser != nil {
			c.Set("user_id", s.currentUser.ID)
			c.Set("user", s.currentUser)
		}
		c.Next()
	})

	api.GET("/feed", s.handlers.GetFeed)
	api.GET("/comments", s.handlers.GetComments)
	api.POST("/posts", s.handlers.CreatePost)
	api.GET("/posts/:id", s.handlers.GetPost)
	api.PUT("/posts/:id", s.handlers.UpdatePost)
	api.DELETE("/posts/:id", s.handlers.DeletePost)
	api.POST("/posts/:id/comments", s.handlers.CreateComment)
	api.POST("/posts/:id/like", s.handlers.LikePost)
	api.DELETE("/posts/:id/like", s.handlers.UnlikePost)
	api.POST("/posts/:id/bookmark", s.handlers.BookmarkPost)
	api.DELETE("/posts/:id/bookmark", s.handlers.UnbookmarkPost)
	api.GET("/bookmarks", s.handlers.GetBookmarks)
	api.POST("/connections", s.handlers.RequestConnection)
	api.PUT("/connections/:id", s.handlers.RespondToConnection)
	api.GET("/connections", s.handlers.GetConnections)
	api.GET("/connections/pending", s.handlers.GetPendingConnections)
	api.GET("/notifications", s.handlers.GetNotifications)
	api.PUT("/notifications/:id/read", s.handlers.MarkNotificationRead)
	api.POST("/conversations", s.handlers.StartConversation)
	api.GET("/conversations", s.handlers.GetConversations)
	api.POST("/conversations/:id/messages", s.handlers.SendMessage)
	api.GET("/conversations/:id/messages", s.handlers.GetMessages)
	api.POST("/services", s.handlers.CreateServiceListing)
	api.GET("/services", s.handlers.GetServiceListings)

	s.router = router
}

func (s *HandlerTestSuite) createUser(username string) *models.User {
	user := &models.User{
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *HandlerTestSuite) createPost(author *models.User, postType models.PostType, title string, createdAt time.Time) *models.Post {
	post := &models.Post{
		UserID: author.ID,
		Type:   postType,
		Title:  title,
	}
	s.Require().NoError(s.db.Create(post).Error)
	s.Require().NoError(s.db.Model(post).UpdateColumn("created_at", createdAt).Error)
	post.CreatedAt = createdAt
	return post
}

func (s *HandlerTestSuite) connect(a, b *models.User) {
	conn := &models.Connection{
		RequesterID: a.ID,
		RecipientID: b.ID,
		Status:      models.ConnectionAccepted,
	}
	s.Require().NoError(s.db.Create(conn).Error)
}

func (s *HandlerTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerTestSuite) TestFeedPostsComponent() {
	viewer := s.createUser("viewer")
	peer := s.createUser("peer")
	stranger := s.createUser("stranger")
	s.connect(viewer, peer)

	now := time.Now().UTC().Truncate(time.Millisecond)
	s.createPost(peer, models.PostTypeNote, "from peer", now.Add(-time.Hour))
	s.createPost(stranger, models.PostTypeNote, "from stranger", now.Add(-30*time.Minute))
	s.createPost(viewer, models.PostTypeNote, "own post", now.Add(-10*time.Minute))

	s.currentUser = viewer
	w := s.do("GET", "/api/v1/feed?component=posts", nil)
	s.Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	posts := resp["posts"].([]interface{})
	s.Len(posts, 1)
	first := posts[0].(map[string]interface{})
	s.Equal("from peer", first["title"])
	s.Equal(float64(0), first["likes_count"])
	s.Equal(false, first["has_liked"])
}

func (s *HandlerTestSuite) TestFeedPagination() {
	viewer := s.createUser("viewer")
	peer := s.createUser("peer")
	s.connect(viewer, peer)

	base := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		s.createPost(peer, models.PostTypeNote, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	s.currentUser = viewer
	w := s.do("GET", "/api/v1/feed?component=posts&limit=2", nil)
	s.Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	posts := resp["posts"].([]interface{})
	s.Len(posts, 2)
	s.Equal("post 4", posts[0].(map[string]interface{})["title"])
	cursor, _ := resp["next_cursor"].(string)
	s.NotEmpty(cursor)

	// Next page resumes strictly after the cursor
	w = s.do("GET", "/api/v1/feed?component=posts&limit=2&cursor="+cursor, nil)
	s.Equal(http.StatusOK, w.Code)
	resp = s.decode(w)
	posts = resp["posts"].([]interface{})
	s.Len(posts, 2)
	s.Equal("post 2", posts[0].(map[string]interface{})["title"])
	cursor, _ = resp["next_cursor"].(string)
	s.NotEmpty(cursor)

	// Final page carries no cursor key at all
	w = s.do("GET", "/api/v1/feed?component=posts&limit=2&cursor="+cursor, nil)
	s.Equal(http.StatusOK, w.Code)
	resp = s.decode(w)
	s.Len(resp["posts"].([]interface{}), 1)
	_, present := resp["next_cursor"]
	s.False(present, "exhausted feed must omit next_cursor")
	s.Equal(false, resp["meta"].(map[string]interface{})["has_more"])
}

func (s *HandlerTestSuite) TestFeedLimitRejected() {
	s.currentUser = s.createUser("viewer")
	w := s.do("GET", "/api/v1/feed?component=posts&limit=999", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	resp := s.decode(w)
	s.Equal("VALIDATION_ERROR", resp["code"])
	s.Equal("limit", resp["field"])
}

func (s *HandlerTestSuite) TestFeedBadComponent() {
	s.currentUser = s.createUser("viewer")
	w := s.do("GET", "/api/v1/feed?component=bogus", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestFeedRecommendations() {
	viewer := s.createUser("viewer")
	other := s.createUser("other")

	now := time.Now().UTC()
	s.createPost(other, models.PostTypeRequest, "need a bassist", now.Add(-time.Hour))
	s.createPost(other, models.PostTypeNote, "just a note", now.Add(-time.Hour))
	s.createPost(viewer, models.PostTypeRequest, "own request", now.Add(-time.Hour))
	s.createPost(other, models.PostTypeRequest, "too old", now.Add(-8*24*time.Hour))

	s.currentUser = viewer
	w := s.do("GET", "/api/v1/feed?component=recommendations", nil)
	s.Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	recs := resp["recommendations"].([]interface{})
	s.Len(recs, 1)
	s.Equal("need a bassist", recs[0].(map[string]interface{})["title"])
}

func (s *HandlerTestSuite) TestCommentTreeRoundTrip() {
	viewer := s.createUser("viewer")
	author := s.createUser("author")
	post := s.createPost(author, models.PostTypeNote, "a post", time.Now().UTC())

	s.currentUser = viewer
	w := s.do("POST", "/api/v1/posts/"+post.ID+"/comments", gin.H{"content": "first!"})
	s.Equal(http.StatusCreated, w.Code)
	root := s.decode(w)["comment"].(map[string]interface{})
	rootID := root["id"].(string)

	w = s.do("POST", "/api/v1/posts/"+post.ID+"/comments", gin.H{"content": "a reply", "parent_id": rootID})
	s.Equal(http.StatusCreated, w.Code)

	w = s.do("GET", "/api/v1/comments?postId="+post.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	tree := resp["comments"].([]interface{})
	s.Len(tree, 1)
	rootNode := tree[0].(map[string]interface{})
	s.Equal("first!", rootNode["content"])
	replies := rootNode["replies"].([]interface{})
	s.Len(replies, 1)
	s.Equal("a reply", replies[0].(map[string]interface{})["content"])
}

func (s *HandlerTestSuite) TestCommentDepthLimit() {
	user := s.createUser("user")
	post := s.createPost(user, models.PostTypeNote, "a post", time.Now().UTC())
	s.currentUser = user

	parentID := ""
	for depth := 1; depth <= 3; depth++ {
		body := gin.H{"content": fmt.Sprintf("depth %d", depth)}
		if parentID != "" {
			body["parent_id"] = parentID
		}
		w := s.do("POST", "/api/v1/posts/"+post.ID+"/comments", body)
		s.Equal(http.StatusCreated, w.Code, "depth %d should succeed", depth)
		parentID = s.decode(w)["comment"].(map[string]interface{})["id"].(string)
	}

	// Depth 4 is rejected
	w := s.do("POST", "/api/v1/posts/"+post.ID+"/comments", gin.H{"content": "too deep", "parent_id": parentID})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", s.decode(w)["code"])
}

func (s *HandlerTestSuite) TestCommentOnMissingPost() {
	s.currentUser = s.createUser("user")
	w := s.do("POST", "/api/v1/posts/nope/comments", gin.H{"content": "hello"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestCommentMentionNotifications() {
	host := s.createUser("host")
	commenter := s.createUser("commenter")
	melody := s.createUser("melody_m")
	post := s.createPost(host, models.PostTypeNote, "session recap", time.Now().UTC())

	s.currentUser = commenter
	w := s.do("POST", "/api/v1/posts/"+post.ID+"/comments",
		gin.H{"content": "great set @melody_m! also @host and @commenter were tight"})
	s.Equal(http.StatusCreated, w.Code)

	// The mentioned member is alerted
	s.currentUser = melody
	w = s.do("GET", "/api/v1/notifications", nil)
	s.Equal(http.StatusOK, w.Code)
	notifications := s.decode(w)["notifications"].([]interface{})
	s.Len(notifications, 1)
	s.Equal("mention", notifications[0].(map[string]interface{})["type"])
	s.Equal(commenter.ID, notifications[0].(map[string]interface{})["actor_id"])

	// The post owner gets the comment notification only, never a second
	// mention for the same comment
	s.currentUser = host
	w = s.do("GET", "/api/v1/notifications", nil)
	notifications = s.decode(w)["notifications"].([]interface{})
	s.Len(notifications, 1)
	s.Equal("comment", notifications[0].(map[string]interface{})["type"])

	// Self-mentions are dropped
	s.currentUser = commenter
	w = s.do("GET", "/api/v1/notifications", nil)
	s.Empty(s.decode(w)["notifications"])
}

func (s *HandlerTestSuite) TestLikeFlowAndCounters() {
	viewer := s.createUser("viewer")
	peer := s.createUser("peer")
	s.connect(viewer, peer)
	post := s.createPost(peer, models.PostTypeNote, "likeable", time.Now().UTC().Add(-time.Hour))

	s.currentUser = viewer
	w := s.do("POST", "/api/v1/posts/"+post.ID+"/like", nil)
	s.Equal(http.StatusCreated, w.Code)

	// Double like conflicts
	w = s.do("POST", "/api/v1/posts/"+post.ID+"/like", nil)
	s.Equal(http.StatusConflict, w.Code)

	// Counters reflect the like in the feed
	w = s.do("GET", "/api/v1/feed?component=posts", nil)
	s.Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Len(posts, 1)
	first := posts[0].(map[string]interface{})
	s.Equal(float64(1), first["likes_count"])
	s.Equal(true, first["has_liked"])

	w = s.do("DELETE", "/api/v1/posts/"+post.ID+"/like", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do("DELETE", "/api/v1/posts/"+post.ID+"/like", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestBookmarks() {
	user := s.createUser("user")
	other := s.createUser("other")
	post := s.createPost(other, models.PostTypeNote, "keeper", time.Now().UTC())

	s.currentUser = user
	w := s.do("POST", "/api/v1/posts/"+post.ID+"/bookmark", nil)
	s.Equal(http.StatusCreated, w.Code)

	w = s.do("GET", "/api/v1/bookmarks", nil)
	s.Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Len(posts, 1)

	w = s.do("DELETE", "/api/v1/posts/"+post.ID+"/bookmark", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestConnectionLifecycle() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	s.currentUser = alice
	w := s.do("POST", "/api/v1/connections", gin.H{"recipient_id": bob.ID})
	s.Equal(http.StatusCreated, w.Code)
	connID := s.decode(w)["connection"].(map[string]interface{})["id"].(string)

	// Duplicate request conflicts
	w = s.do("POST", "/api/v1/connections", gin.H{"recipient_id": bob.ID})
	s.Equal(http.StatusConflict, w.Code)

	// Only the recipient can respond
	w = s.do("PUT", "/api/v1/connections/"+connID, gin.H{"status": "accepted"})
	s.Equal(http.StatusForbidden, w.Code)

	s.currentUser = bob
	w = s.do("GET", "/api/v1/connections/pending", nil)
	s.Equal(http.StatusOK, w.Code)
	pending := s.decode(w)["connections"].([]interface{})
	s.Len(pending, 1)

	w = s.do("PUT", "/api/v1/connections/"+connID, gin.H{"status": "accepted"})
	s.Equal(http.StatusOK, w.Code)

	w = s.do("GET", "/api/v1/connections", nil)
	s.Equal(http.StatusOK, w.Code)
	accepted := s.decode(w)["connections"].([]interface{})
	s.Len(accepted, 1)

	// Notification was recorded for the requester
	s.currentUser = alice
	w = s.do("GET", "/api/v1/notifications", nil)
	s.Equal(http.StatusOK, w.Code)
	notifications := s.decode(w)["notifications"].([]interface{})
	s.Len(notifications, 1)
	s.Equal("connection_accepted", notifications[0].(map[string]interface{})["type"])
}

func (s *HandlerTestSuite) TestSelfConnectionRejected() {
	alice := s.createUser("alice")
	s.currentUser = alice
	w := s.do("POST", "/api/v1/connections", gin.H{"recipient_id": alice.ID})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestMessaging() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	mallory := s.createUser("mallory")

	s.currentUser = alice
	w := s.do("POST", "/api/v1/conversations", gin.H{"recipient_id": bob.ID})
	s.Equal(http.StatusCreated, w.Code)
	convID := s.decode(w)["conversation"].(map[string]interface{})["id"].(string)

	// Starting it again returns the same conversation
	w = s.do("POST", "/api/v1/conversations", gin.H{"recipient_id": bob.ID})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(convID, s.decode(w)["conversation"].(map[string]interface{})["id"].(string))

	w = s.do("POST", "/api/v1/conversations/"+convID+"/messages", gin.H{"content": "hey, gig Friday?"})
	s.Equal(http.StatusCreated, w.Code)

	// Non-members can neither read nor write
	s.currentUser = mallory
	w = s.do("GET", "/api/v1/conversations/"+convID+"/messages", nil)
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do("POST", "/api/v1/conversations/"+convID+"/messages", gin.H{"content": "intruding"})
	s.Equal(http.StatusForbidden, w.Code)

	s.currentUser = bob
	w = s.do("GET", "/api/v1/conversations/"+convID+"/messages", nil)
	s.Equal(http.StatusOK, w.Code)
	messages := s.decode(w)["messages"].([]interface{})
	s.Len(messages, 1)
	s.Equal("hey, gig Friday?", messages[0].(map[string]interface{})["content"])
}

func (s *HandlerTestSuite) TestServiceListings() {
	teachers := s.createUser("guitar_teacher")
	student := s.createUser("student")

	s.currentUser = teachers
	w := s.do("POST", "/api/v1/services", gin.H{
		"title":    "Guitar lessons",
		"category": "lessons",
		"rate":     40.0,
	})
	s.Equal(http.StatusCreated, w.Code)
	listing := s.decode(w)["listing"].(map[string]interface{})
	s.Equal("USD", listing["currency"])

	s.currentUser = student
	w = s.do("GET", "/api/v1/services?category=lessons", nil)
	s.Equal(http.StatusOK, w.Code)
	listings := s.decode(w)["listings"].([]interface{})
	s.Len(listings, 1)
}

func (s *HandlerTestSuite) TestPostCRUD() {
	author := s.createUser("author")
	other := s.createUser("other")

	s.currentUser = author
	w := s.do("POST", "/api/v1/posts", gin.H{
		"type":  "request",
		"title": "Drummer wanted",
	})
	s.Equal(http.StatusCreated, w.Code)
	postID := s.decode(w)["post"].(map[string]interface{})["id"].(string)

	// Invalid type is rejected
	w = s.do("POST", "/api/v1/posts", gin.H{"type": "rant", "title": "nope"})
	s.Equal(http.StatusBadRequest, w.Code)

	// Others cannot edit
	s.currentUser = other
	w = s.do("PUT", "/api/v1/posts/"+postID, gin.H{"title": "hijacked"})
	s.Equal(http.StatusForbidden, w.Code)

	s.currentUser = author
	w = s.do("PUT", "/api/v1/posts/"+postID, gin.H{"title": "Drummer found"})
	s.Equal(http.StatusOK, w.Code)

	w = s.do("DELETE", "/api/v1/posts/"+postID, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do("GET", "/api/v1/posts/"+postID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
