package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/infrastructure/auth"
	"github.com/loomworks/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRequestID(t *testing.T) {
	t.Run("generates a request ID when missing", func(t *testing.T) {
		router := newTestEngine()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) {
			assert.NotEmpty(t, c.GetString(RequestIDKey))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates an incoming request ID", func(t *testing.T) {
		router := newTestEngine()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-abc")
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
	})
}

func TestBodyLimit(t *testing.T) {
	router := newTestEngine()
	router.Use(BodyLimit(16))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allows small bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("allows whitelisted origin", func(t *testing.T) {
		router := newTestEngine()
		router.Use(CORSWithConfig(CORSConfig{
			AllowOrigins: []string{"https://portal.example.com"},
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       time.Hour,
		}))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty whitelist sets no CORS headers", func(t *testing.T) {
		router := newTestEngine()
		router.Use(CORSWithConfig(DefaultCORSConfig()))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		router := newTestEngine()
		router.Use(CORSWithConfig(CORSConfig{AllowOrigins: []string{"*"}}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough-123",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "loomworks-test",
	})

	newRouter := func(cfg JWTMiddlewareConfig) *gin.Engine {
		router := newTestEngine()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/orders", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"tenant_id": GetJWTTenantID(c),
				"user_id":   GetJWTUserID(c),
			})
		})
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	t.Run("valid token passes and populates context", func(t *testing.T) {
		tenantID := uuid.New()
		userID := uuid.New()
		token, _, err := jwtService.GenerateAccessToken(auth.GenerateTokenInput{
			TenantID: tenantID,
			UserID:   userID,
			Username: "weaver",
		})
		require.NoError(t, err)

		router := newRouter(DefaultJWTConfig(jwtService))
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		router := newRouter(DefaultJWTConfig(jwtService))
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/orders", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed token is rejected", func(t *testing.T) {
		router := newRouter(DefaultJWTConfig(jwtService))
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("skip paths bypass authentication", func(t *testing.T) {
		router := newRouter(DefaultJWTConfig(jwtService))
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
