package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "carmarket-backend/internal/application/auth"
	"carmarket-backend/internal/infrastructure/database/dbtest"
	"carmarket-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	db := dbtest.Open(t)
	svc := &authsvc.Service{
		DB:          db,
		Tokens:      &authsvc.Tokens{Secret: []byte("test-secret"), TTL: time.Hour},
		Revocations: &authsvc.Revocations{Rdb: rdb},
	}
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Get("/me", middleware.RequireAuth(svc), h.Me)
	app.Post("/logout", middleware.RequireAuth(svc), h.Logout)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

func withToken(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

var validRegistration = map[string]string{
	"fullname": "Omar Khalil",
	"email":    "omar@cars.jo",
	"password": "s3cret-pass",
}

func TestRegister(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp, body := postJSON(t, app, "/register", validRegistration)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "omar@cars.jo", data["user"].(map[string]interface{})["email"])

	resp, _ = postJSON(t, app, "/register", validRegistration)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = postJSON(t, app, "/register", map[string]string{"fullname": "Omar", "email": "x@cars.jo", "password": "short"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestLogin(t *testing.T) {
	app, db := setupAuthApp(t)
	postJSON(t, app, "/register", validRegistration)

	resp, _ := postJSON(t, app, "/login", map[string]string{"email": "omar@cars.jo"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, app, "/login", map[string]string{"email": "omar@cars.jo", "password": "wrong-pass1"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, app, "/login", map[string]string{"email": "nobody@cars.jo", "password": "s3cret-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := postJSON(t, app, "/login", map[string]string{"email": "OMAR@cars.jo", "password": "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]interface{})["token"])

	require.NoError(t, db.Exec("UPDATE users SET active = ?", false).Error)
	resp, _ = postJSON(t, app, "/login", map[string]string{"email": "omar@cars.jo", "password": "s3cret-pass"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMeAndLogout(t *testing.T) {
	app, _ := setupAuthApp(t)
	_, body := postJSON(t, app, "/register", validRegistration)
	token := body["data"].(map[string]interface{})["token"].(string)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(withToken("GET", "/me", token))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := readBody(t, resp)["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Omar Khalil", me["fullname"])
	assert.Equal(t, "user", me["role"])

	resp, err = app.Test(withToken("POST", "/logout", token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(withToken("GET", "/me", token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
