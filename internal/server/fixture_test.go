package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"avatio/internal/config"
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/storage"
	"avatio/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret   = "test-secret-at-least-thirty-two-chars"
	testAdminKey    = "test-admin-key"
	testCronSecret  = "test-cron-secret"
	testPublicURL   = "https://cdn.avatio.test"
	testMaxUploadMB = 1
)

type testServer struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	store *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewMemoryStore()

	cfg := &config.Config{
		JWTSecret:            testJWTSecret,
		AdminAPIKey:          testAdminKey,
		CronSecret:           testCronSecret,
		Env:                  "test",
		StoragePublicURL:     testPublicURL,
		ImageMaxUploadSizeMB: testMaxUploadMB,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.dispatch.Wait()
		_ = rdb.Close()
	})

	return &testServer{srv: srv, app: srv.NewApp(), db: db, mr: mr, store: store}
}

func (ts *testServer) user(t *testing.T, name string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, ts.db, name, models.RoleUser)
}

func (ts *testServer) admin(t *testing.T, name string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, ts.db, name, models.RoleAdmin)
}

func (ts *testServer) bannedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := ts.user(t, name)
	require.NoError(t, ts.db.Model(u).Update("is_banned", true).Error)
	u.IsBanned = true
	return u
}

// waitSideEffects blocks until detached notification and audit writes land.
func (ts *testServer) waitSideEffects() {
	ts.srv.dispatch.Wait()
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := middleware.IssueSessionToken(testJWTSecret, u.ID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request with an optional JSON body and bearer credential.
func (ts *testServer) do(t *testing.T, method, path string, body any, bearer string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) as(t *testing.T, u *models.User, method, path string, body any) *http.Response {
	t.Helper()
	return ts.do(t, method, path, body, tokenFor(t, u))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(bytes.TrimSpace(raw))
}

func errorOf(t *testing.T, resp *http.Response) models.ErrorBody {
	t.Helper()
	return decode[models.ErrorResponse](t, resp).Error
}
