package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberPidgi/rentiful/internal/config"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret, sub, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["custom:role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", handler, func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "role": id.Role, "identified": ok})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	p := NewTokenParser(config.AuthConfig{JWTSecret: testSecret})
	r := newRouter(p.RequireRole("tenant"))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", signed(t, "other", "t-1", "tenant"), http.StatusUnauthorized},
		{"wrong role", signed(t, testSecret, "m-1", "manager"), http.StatusForbidden},
		{"role case-insensitive", signed(t, testSecret, "t-1", "Tenant"), http.StatusOK},
		{"tenant", signed(t, testSecret, "t-1", "tenant"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.token)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"id":"t-1"`)
				assert.Contains(t, w.Body.String(), `"role":"tenant"`)
			}
		})
	}
}

func TestUnverifiedTokensTrustedWithoutSecret(t *testing.T) {
	p := NewTokenParser(config.AuthConfig{})
	r := newRouter(p.RequireRole("manager"))

	w := get(r, signed(t, "issued-elsewhere", "m-7", "manager"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"m-7"`)
}

func TestTokenWithoutSubjectRejected(t *testing.T) {
	p := NewTokenParser(config.AuthConfig{JWTSecret: testSecret})
	_, err := p.Parse(signed(t, testSecret, "", "tenant"))
	assert.Error(t, err)
}

func TestOptional(t *testing.T) {
	p := NewTokenParser(config.AuthConfig{JWTSecret: testSecret})
	r := newRouter(p.Optional())

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identified":false`)

	w = get(r, signed(t, testSecret, "t-2", "tenant"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identified":true`)

	w = get(r, "broken")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}
