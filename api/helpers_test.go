package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledger/config"
	"ledger/database"
	"ledger/middleware"
	"ledger/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

var (
	alice = middleware.Identity{Username: "alice", Email: "alice@x.com", Role: models.RoleRegular}
	bob   = middleware.Identity{Username: "bob", Email: "bob@x.com", Role: models.RoleRegular}
	root  = middleware.Identity{Username: "root", Email: "root@x.com", Role: models.RoleAdmin}
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			Secret:     testSecret,
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
	}
}

func testVerifier() *middleware.Verifier {
	return middleware.NewVerifier(testSecret)
}

// session returns a valid cookie pair for id.
func session(t *testing.T, id middleware.Identity) []*http.Cookie {
	return sessionWithTTL(t, id, time.Hour, time.Hour)
}

func sessionWithTTL(t *testing.T, id middleware.Identity, accessTTL, refreshTTL time.Duration) []*http.Cookie {
	t.Helper()
	v := testVerifier()
	access, err := v.GenerateToken(id, accessTTL)
	require.NoError(t, err)
	refresh, err := v.GenerateToken(id, refreshTTL)
	require.NoError(t, err)
	return []*http.Cookie{
		{Name: middleware.AccessTokenCookie, Value: access},
		{Name: middleware.RefreshTokenCookie, Value: refresh},
	}
}

// perform sends a request through a router holding a single route.
func perform(method, pattern, target string, handler gin.HandlerFunc, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func userColumns() []string {
	return []string{"id", "username", "email", "password", "role", "refresh_token", "created_at", "updated_at"}
}
