package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger.InitializeForTests()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	return NewService(db, []byte("test-secret"))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Register(RegisterRequest{
		Email:       "sam@example.com",
		Username:    "sam_drums",
		Password:    "correct horse",
		DisplayName: "Sam",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "sam_drums", resp.User.Username)

	login, err := svc.Login(LoginRequest{Email: "sam@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(RegisterRequest{
		Email: "sam@example.com", Username: "sam", Password: "password123", DisplayName: "Sam",
	})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{
		Email: "SAM@example.com", Username: "other", Password: "password123", DisplayName: "Other",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(RegisterRequest{
		Email: "new@example.com", Username: "SAM", Password: "password123", DisplayName: "Imposter",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(RegisterRequest{
		Email: "sam@example.com", Username: "sam", Password: "password123", DisplayName: "Sam",
	})
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Register(RegisterRequest{
		Email: "sam@example.com", Username: "sam", Password: "password123", DisplayName: "Sam",
	})
	require.NoError(t, err)

	user, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// Token signed with another secret is rejected
	other := NewService(svc.db, []byte("other-secret"))
	otherResp, err := other.Register(RegisterRequest{
		Email: "kai@example.com", Username: "kai", Password: "password123", DisplayName: "Kai",
	})
	require.NoError(t, err)
	_, err = svc.ValidateToken(otherResp.Token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)

	resp, err := svc.Register(RegisterRequest{
		Email: "sam@example.com", Username: "sam", Password: "password123", DisplayName: "Sam",
	})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", svc.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	// Valid token
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.User.ID)

	// Missing token
	req = httptest.NewRequest("GET", "/protected", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
