package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"cellar/internal/handlers"
	"cellar/internal/logger"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	repos, err := repositories.Open(context.Background(), repositories.Options{
		Driver: repositories.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	quiet := logger.Discard()
	cellarService := services.NewCellarService(repos.Beverages, services.WithLogger(quiet))
	picklistService := services.NewPicklistService(repos.Picklists, repos.Beverages, services.WithLogger(quiet))

	app := fiber.New(fiber.Config{UnescapePath: true})
	apiV1 := app.Group("/api/v1")
	handlers.NewCellarHandler(cellarService, quiet).RegisterRoutes(apiV1)
	handlers.NewPicklistHandler(picklistService, quiet).RegisterRoutes(apiV1)
	return app
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func recordPath(id, location string) string {
	return "/api/v1/cellar/" + url.PathEscape(id) + "/" + url.PathEscape(location)
}

func duffLite() map[string]any {
	return map[string]any{
		"producer":  "Duff",
		"name":      "Lite",
		"year":      1997,
		"size":      "12 oz",
		"location":  "Cellar",
		"quantity":  6,
		"dateAdded": 1585612800000,
	}
}

const duffID = "Duff_Lite_1997_12 oz_None"

func TestCellarEndpoints(t *testing.T) {
	app := setupApp(t)

	// --- Test POST /cellar ---
	status, env := do(t, app, http.MethodPost, "/api/v1/cellar", duffLite())
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Created", env.Message)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, duffID, created["id"])
	assert.Equal(t, float64(1585612800000), created["dateAdded"])
	assert.Equal(t, true, created["forTrade"])

	// --- Test GET /cellar ---
	status, env = do(t, app, http.MethodGet, "/api/v1/cellar", nil)
	assert.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, float64(6), list[0]["quantity"])

	status, env = do(t, app, http.MethodGet, "/api/v1/cellar?dates=iso", nil)
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, "2020-03-31T00:00:00.000Z", list[0]["dateAdded"])

	// --- Test GET /cellar/:id/:location ---
	status, env = do(t, app, http.MethodGet, recordPath(duffID, "Cellar"), nil)
	assert.Equal(t, http.StatusOK, status)
	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Cellar", got["location"])

	status, env = do(t, app, http.MethodGet, recordPath(duffID, "Fridge"), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", env.Message)

	// --- Test PUT /cellar/:id/:location ---
	update := duffLite()
	delete(update, "dateAdded")
	update["quantity"] = 4
	status, env = do(t, app, http.MethodPut, recordPath(duffID, "Cellar"), update)
	assert.Equal(t, http.StatusOK, status)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, float64(4), updated["quantity"])
	assert.Equal(t, float64(1585612800000), updated["dateAdded"])

	moved := duffLite()
	moved["location"] = "Fridge"
	status, _ = do(t, app, http.MethodPut, recordPath(duffID, "Cellar"), moved)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPut, recordPath(duffID, "Fridge"), moved)
	assert.Equal(t, http.StatusNotFound, status)

	// --- Test DELETE /cellar/:id/:location ---
	status, env = do(t, app, http.MethodDelete, recordPath(duffID, "Cellar"), nil)
	assert.Equal(t, http.StatusOK, status)
	var message string
	require.NoError(t, json.Unmarshal(env.Data, &message))
	assert.Equal(t, duffID+" at Cellar deleted successfully.", message)

	status, _ = do(t, app, http.MethodDelete, recordPath(duffID, "Cellar"), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateRecordValidation(t *testing.T) {
	app := setupApp(t)

	body := duffLite()
	delete(body, "size")
	status, env := do(t, app, http.MethodPost, "/api/v1/cellar", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "size", env.Field)

	body = duffLite()
	body["year"] = "nineteen ninety seven"
	status, env = do(t, app, http.MethodPost, "/api/v1/cellar", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "year", env.Field)

	status, env = do(t, app, http.MethodPost, "/api/v1/cellar", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "request must contain a body", env.Error)

	status, _ = do(t, app, http.MethodPost, "/api/v1/cellar", "[1, 2")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCellarTreeEndpoints(t *testing.T) {
	app := setupApp(t)

	stale := duffLite()
	stale["producer"], stale["name"], stale["year"] = "Westbrook", "Gose", 2012
	status, _ := do(t, app, http.MethodPost, "/api/v1/cellar", stale)
	require.Equal(t, http.StatusCreated, status)

	tree := map[string]any{
		"producer": "Westbrook",
		"name":     "Gose",
		"vintages": []any{
			map[string]any{
				"year":       2013,
				"size":       "12 oz",
				"bottleDate": "2013-06-24",
				"locations": []any{
					map[string]any{"name": "Fridge", "quantity": 2},
					map[string]any{"name": "Cellar", "quantity": 4},
				},
			},
		},
	}
	status, _ = do(t, app, http.MethodPut, "/api/v1/cellar/tree", tree)
	assert.Equal(t, http.StatusOK, status)

	status, env := do(t, app, http.MethodGet, "/api/v1/cellar/tree", nil)
	assert.Equal(t, http.StatusOK, status)
	var beverages []struct {
		Producer string `json:"producer"`
		Vintages []struct {
			ID        string           `json:"id"`
			Locations []map[string]any `json:"locations"`
		} `json:"vintages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &beverages))
	require.Len(t, beverages, 1)
	require.Len(t, beverages[0].Vintages, 1)
	assert.Equal(t, "Westbrook_Gose_2013_12 oz_2013-06-24", beverages[0].Vintages[0].ID)
	assert.Len(t, beverages[0].Vintages[0].Locations, 2)
}

func TestPicklistEndpoints(t *testing.T) {
	app := setupApp(t)

	status, env := do(t, app, http.MethodPut, "/api/v1/picklist-data", map[string]any{
		"listName":     "size",
		"values":       []any{map[string]any{"value": "12 oz"}, map[string]any{"value": "750 ml", "displayOrder": 1}},
		"lastModified": 1,
	})
	assert.Equal(t, http.StatusOK, status)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "size", saved["listName"])
	assert.NotEqual(t, float64(1), saved["lastModified"])

	status, env = do(t, app, http.MethodGet, "/api/v1/picklist-data/size", nil)
	assert.Equal(t, http.StatusOK, status)
	var got struct {
		Values []map[string]any `json:"values"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Values, 2)

	status, env = do(t, app, http.MethodGet, "/api/v1/picklist-data/style", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", env.Message)

	status, env = do(t, app, http.MethodPut, "/api/v1/picklist-data", map[string]any{"values": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "listName", env.Field)

	status, _ = do(t, app, http.MethodPost, "/api/v1/cellar", duffLite())
	require.Equal(t, http.StatusCreated, status)
	status, env = do(t, app, http.MethodGet, "/api/v1/picklist-data/suggestions", nil)
	assert.Equal(t, http.StatusOK, status)
	var suggestions []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &suggestions))
	assert.NotEmpty(t, suggestions)
}
