package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	NewRouter(engine, WithPrefix("/api/v1")).Register(group).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroupMiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var order []string

	group := NewDomainGroup("shop", "/shop").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	group.Group("items", "/items").
		GET("/:id", func(c *gin.Context) {
			order = append(order, "handler:"+c.Param("id"))
			c.Status(http.StatusOK)
		}).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shop/items/5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"group", "handler:5"}, order)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/shop/items/5", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, "shop", group.Name())
	assert.Equal(t, "/shop", group.Prefix())
}
