package user

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "carmarket-backend/internal/application/auth"
	usersvc "carmarket-backend/internal/application/user"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func asUser(u domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &authsvc.Claims{UserID: u.UserID, Email: u.Email, Role: u.Role})
		return c.Next()
	}
}

func setupUserApp(t *testing.T) (*gorm.DB, domain.User, domain.User, *fiber.App) {
	db := dbtest.Open(t)
	admin := dbtest.SeedUser(t, db, "admin@cars.jo", "admin", true)
	seller := dbtest.SeedUser(t, db, "seller@cars.jo", "user", true)
	h := &Handlers{Service: &usersvc.Service{DB: db}}

	app := fiber.New()
	app.Get("/users/me", asUser(seller), h.GetMe)
	app.Put("/users/me", asUser(seller), h.UpdateMe)
	app.Get("/anon/me", h.GetMe)
	app.Get("/admin/users", asUser(admin), h.ListUsers)
	app.Put("/admin/users/:userId/role", asUser(admin), h.UpdateRole)
	app.Put("/admin/users/:userId/active", asUser(admin), h.SetActive)
	return db, admin, seller, app
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp, out
}

func TestGetMe(t *testing.T) {
	_, _, seller, app := setupUserApp(t)

	resp, body := send(t, app, "GET", "/users/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	u := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, seller.UserID.String(), u["user_id"])
	assert.NotContains(t, u, "password_hash")

	resp, _ = send(t, app, "GET", "/anon/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateMe(t *testing.T) {
	_, _, _, app := setupUserApp(t)

	resp, _ := send(t, app, "PUT", "/users/me", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, "PUT", "/users/me", map[string]string{"password": "n3w-password", "current_password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := send(t, app, "PUT", "/users/me", map[string]string{"fullname": "rana saleh", "phone": "+962780000000"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	u := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Rana Saleh", u["fullname"])
	assert.Equal(t, "+962780000000", u["phone"])
}

func TestAdminUsers(t *testing.T) {
	db, admin, seller, app := setupUserApp(t)

	resp, body := send(t, app, "GET", "/admin/users?size=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(2), body["metadata"].(map[string]interface{})["total"])

	resp, _ = send(t, app, "GET", "/admin/users?size=500", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, app, "PUT", "/admin/users/not-a-uuid/role", map[string]string{"role": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = send(t, app, "PUT", "/admin/users/"+seller.UserID.String()+"/role", map[string]string{"role": "superuser"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = send(t, app, "PUT", "/admin/users/"+admin.UserID.String()+"/role", map[string]string{"role": "user"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = send(t, app, "PUT", "/admin/users/"+admin.UserID.String()+"/active", map[string]bool{"active": false})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = send(t, app, "PUT", "/admin/users/"+seller.UserID.String()+"/active", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, body = send(t, app, "PUT", "/admin/users/"+seller.UserID.String()+"/active", map[string]bool{"active": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["data"].(map[string]interface{})["user"].(map[string]interface{})["active"])

	var stored domain.User
	require.NoError(t, db.Where("user_id = ?", seller.UserID).First(&stored).Error)
	assert.False(t, stored.Active)
}
