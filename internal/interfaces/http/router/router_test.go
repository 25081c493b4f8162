package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	orders := NewDomainGroup("manufacturing", "/manufacturing")
	orders.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	orders.POST("/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(orders)
	r.Setup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/manufacturing/orders", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/manufacturing/orders", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouterUseAppliesMiddlewareToAPIRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	group := NewDomainGroup("manufacturing", "/manufacturing")
	group.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	r.Register(group)
	r.Setup()

	// API routes pass through the router middleware
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/manufacturing/orders", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Routes registered directly on the engine do not
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDomainGroupSubgroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	parent := NewDomainGroup("manufacturing", "/manufacturing")
	child := parent.Group("documents", "/orders/:id/documents")
	child.GET("", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

	r := NewRouter(engine)
	r.Register(parent)
	r.Setup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/manufacturing/orders/abc/documents", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
}
