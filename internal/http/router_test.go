package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloxhub/internal/db"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return NewRouter(gdb, "test-secret", zerolog.Nop())
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRouterAuthFlow(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "flow@example.test",
		"password": "longenough",
		"name":     "Flow",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	// Registration seeded the personal organization.
	w = doJSON(t, r, http.MethodGet, "/api/v1/orgs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orgList := decode(t, w)["organizations"].([]any)
	require.Len(t, orgList, 1)
	assert.Equal(t, "INDIVIDUAL", orgList[0].(map[string]any)["type"])

	// Unauthenticated requests are rejected.
	w = doJSON(t, r, http.MethodGet, "/api/v1/orgs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Profile echo.
	w = doJSON(t, r, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterOrgLifecycle(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "owner@example.test",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["token"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/v1/orgs", token, map[string]any{
		"name": "Widgets Inc",
		"type": "BUSINESS",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	org := decode(t, w)["organization"].(map[string]any)
	orgID := int64(org["id"].(float64))

	// The default entity exists from the first moment.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orgs/%d/entities", orgID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entities := decode(t, w)["entities"].([]any)
	require.Len(t, entities, 1)
	assert.Equal(t, true, entities[0].(map[string]any)["is_default"])

	// Deleting the sole entity is a conflict.
	entityID := int64(entities[0].(map[string]any)["id"].(float64))
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/orgs/%d/entities/%d", orgID, entityID), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The audit trail recorded the creation.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orgs/%d/audit", orgID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode(t, w)["logs"].([]any)
	require.NotEmpty(t, logs)
	assert.Equal(t, "orgs.create", logs[0].(map[string]any)["action"])
}

func TestRouterNavAnonymous(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nav", nil)
	req.Header.Set("Origin", "https://nota.veloxlabs.app")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://nota.veloxlabs.app", w.Header().Get("Access-Control-Allow-Origin"))

	out := decode(t, w)
	assert.Nil(t, out["user"])
	assert.NotEmpty(t, out["apps"])
}

func TestRouterSSORoundTrip(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "sso@example.test",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["token"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/v1/sso/token", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ssoToken := decode(t, w)["token"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/v1/sso/validate", "", map[string]any{"token": ssoToken})
	require.Equal(t, http.StatusOK, w.Code)
	identity := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "sso@example.test", identity["email"])

	// Single use.
	w = doJSON(t, r, http.MethodPost, "/api/v1/sso/validate", "", map[string]any{"token": ssoToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
