package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cellar/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(origins []string) *fiber.App {
	app := fiber.New()
	app.Use("/api", middleware.CORS(origins))
	app.Get("/api/v1/cellar", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestCORS_WhitelistedOrigin(t *testing.T) {
	app := newApp([]string{" http://localhost:3000/ ", "https://cellar.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cellar", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cellar", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	app := newApp([]string{"https://cellar.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cellar", nil)
	req.Header.Set("Origin", "https://cellar.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestCORS_NoOrigins(t *testing.T) {
	app := newApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cellar", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
