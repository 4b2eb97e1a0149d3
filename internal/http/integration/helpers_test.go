package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	security.Cost = bcrypt.MinCost
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		JWTSecret:       "integration-test-secret",
		TokenTTL:        24 * time.Hour,
		AdminEmail:      adminEmail,
		AdminPassword:   adminPassword,
		AdminName:       "Test Admin",
		AdminRole:       "admin",
		AnonRateLimit:   1000,
		AuthedRateLimit: 1000,
		RateLimitWindow: time.Minute,
		MaxBodyBytes:    1 << 20,
	}
}

// userStore is a users repository that also owns token versions, which both
// the memory and Postgres repos are.
type userStore interface {
	apphttp.UsersRepository
	session.VersionStore
}

// newRouter seeds the admin and wires the full middleware chain the way
// cmd/api does.
func newRouter(t *testing.T, cfg config.Config, users userStore, tasks apphttp.TasksRepository, anon, authed ratelimit.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := db.EnsureAdminUser(context.Background(), users, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	if anon == nil {
		anon = ratelimit.NewMemory(cfg.AnonRateLimit, cfg.RateLimitWindow)
	}
	if authed == nil {
		authed = ratelimit.NewMemory(cfg.AuthedRateLimit, cfg.RateLimitWindow)
	}

	return apphttp.NewRouter(cfg, apphttp.Deps{
		Users:         users,
		Tasks:         tasks,
		Codec:         auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL),
		Sessions:      session.NewAuthority(users),
		AnonLimiter:   anon,
		AuthedLimiter: authed,
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, raw []byte, out *T) {
	t.Helper()
	err := json.Unmarshal(raw, out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, string(raw))
	}
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, w.Code, w.Body.String())
	}

	var env envelope
	mustReadJSON(t, w.Body.Bytes(), &env)

	var data struct {
		Token string `json:"token"`
	}
	mustReadJSON(t, env.Data, &data)

	if data.Token == "" {
		t.Fatalf("empty token in %s", w.Body.String())
	}
	return data.Token
}

func tokenVersion(t *testing.T, token string) int64 {
	t.Helper()
	p, err := auth.NewCodec("unused", time.Hour).Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p.TokenVersion
}
