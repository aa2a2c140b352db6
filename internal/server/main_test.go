package server

import (
	"context"
	"os"
	"testing"

	"mindbridge/internal/config"
	"mindbridge/internal/database"
	"mindbridge/internal/featureflags"
	"mindbridge/internal/middleware"
	"mindbridge/internal/models"
	"mindbridge/internal/notifications"
	"mindbridge/internal/repository"
	"mindbridge/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret-test-secret-test-secret",
		Port:           "0",
		Env:            "test",
		GoogleClientID: "test-client-id.apps.googleusercontent.com",
		UploadName:     "test-cloud",
		UploadKey:      "test-key",
		UploadSecret:   "test-secret",
	}
}

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// newTestServer wires a Server against in-memory SQLite without Redis.
// Construction bypasses NewServerWithDeps so the Prometheus middleware is
// not re-registered for every test.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig()
	middleware.InitMiddleware(cfg)
	db := newHandlerTestDB(t)

	s := &Server{
		config:             cfg,
		db:                 db,
		userRepo:           repository.NewUserRepository(db),
		circleRepo:         repository.NewCircleRepository(db),
		postRepo:           repository.NewPostRepository(db),
		journalRepo:        repository.NewJournalRepository(db),
		moodRepo:           repository.NewMoodRepository(db),
		notificationRepo:   repository.NewNotificationRepository(db),
		hub:                notifications.NewHub(),
		flags:              featureflags.NewManager("realtime_post_sync=on"),
		googleTokenInfoURL: defaultGoogleTokenInfoURL,
	}
	s.circleService = service.NewCircleService(s.circleRepo, s)
	s.moodService = service.NewMoodService(s.moodRepo)
	return s
}

// asUser injects the authenticated user the way the auth middleware would.
func asUser(userID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	}
}

func createTestUser(t *testing.T, s *Server, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("SecurePass12!@"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, s.userRepo.Create(context.Background(), user))
	return user
}
