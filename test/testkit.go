// Package test runs the MindBridge API end to end through the full Fiber
// stack: real middleware, real handlers, in-memory SQLite, no Redis.
package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"mindbridge/internal/config"
	"mindbridge/internal/database"
	"mindbridge/internal/server"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	appOnce   sync.Once
	sharedApp *fiber.App
	appErr    error
)

// apiApp builds the full application exactly once per test binary. The
// Prometheus middleware registers collectors in the default registry, so a
// second construction would panic on duplicate registration.
func apiApp(t *testing.T) *fiber.App {
	t.Helper()

	appOnce.Do(func() {
		_ = os.Setenv("APP_ENV", "test")

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			appErr = err
			return
		}
		if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
			appErr = err
			return
		}

		cfg := &config.Config{
			JWTSecret:    "integration-secret-integration-secret",
			Port:         "0",
			Env:          "test",
			FeatureFlags: "realtime_post_sync=on",
		}

		srv, err := server.NewServerWithDeps(cfg, db, nil)
		if err != nil {
			appErr = err
			return
		}

		app := fiber.New()
		srv.SetupMiddleware(app)
		srv.SetupRoutes(app)
		sharedApp = app
	})

	if appErr != nil {
		t.Fatalf("build application: %v", appErr)
	}
	return sharedApp
}

// session is an authenticated API client bound to one signed-up user.
type session struct {
	UserID uint
	Cookie *http.Cookie
}

func jsonReq(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	if payload == nil {
		return httptest.NewRequest(method, path, nil)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *session) do(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()
	req := jsonReq(t, method, path, payload)
	if s != nil && s.Cookie != nil {
		req.AddCookie(s.Cookie)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// signup registers a fresh user and captures the session cookie issued with
// the 201 response.
func signup(t *testing.T, app *fiber.App, prefix string) *session {
	t.Helper()

	suffix := time.Now().UnixNano()
	payload := map[string]string{
		"username": fmt.Sprintf("%s_%d", prefix, suffix),
		"email":    fmt.Sprintf("%s_%d@example.com", prefix, suffix),
		"password": "SecurePass12!@",
	}

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/api/auth/signup", payload), -1)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d", resp.StatusCode)
	}

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "token" {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("signup did not set a session cookie")
	}

	var body struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	if body.User.ID == 0 {
		t.Fatalf("signup returned no user ID")
	}

	return &session{UserID: body.User.ID, Cookie: cookie}
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}
