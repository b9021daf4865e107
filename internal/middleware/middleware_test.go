package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	authsvc "carmarket-backend/internal/application/auth"
	"carmarket-backend/internal/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator map[string]*authsvc.Claims

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*authsvc.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, authsvc.ErrInvalidToken
}

func testAuth() fakeAuthenticator {
	return fakeAuthenticator{
		"user-token":  {UserID: uuid.New(), Role: "user"},
		"admin-token": {UserID: uuid.New(), Role: "admin"},
	}
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireAuth(testAuth()), func(c *fiber.Ctx) error {
		return c.SendString(GetUser(c).Role)
	})

	assert.Equal(t, 401, get(t, app, "/me", ""))
	assert.Equal(t, 401, get(t, app, "/me", "forged"))
	assert.Equal(t, 200, get(t, app, "/me", "user-token"))
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalAuth(testAuth()), func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return c.SendStatus(204)
		}
		return c.SendStatus(200)
	})
	assert.Equal(t, 204, get(t, app, "/", ""))
	assert.Equal(t, 204, get(t, app, "/", "forged"))
	assert.Equal(t, 200, get(t, app, "/", "admin-token"))
}

func TestAuthorizePermission(t *testing.T) {
	app := fiber.New()
	auth := RequireAuth(testAuth())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(200) }
	app.Get("/moderate", auth, AuthorizePermission(constants.ModerateListings), ok)
	app.Get("/unknown", auth, AuthorizePermission("launch_rockets"), ok)

	assert.Equal(t, 403, get(t, app, "/moderate", "user-token"))
	assert.Equal(t, 200, get(t, app, "/moderate", "admin-token"))
	assert.Equal(t, 500, get(t, app, "/unknown", "admin-token"))
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(BearerToken(c)) })
	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"Bearer":      "",
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body), header)
	}
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Trace-Id"))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", id)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get("X-Trace-Id"))
}

func TestHealthMarker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Tracing(), HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db gone") })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	assert.Equal(t, 200, get(t, app, "/ok", ""))
	assert.Equal(t, 500, get(t, app, "/boom", ""))
	assert.Equal(t, 200, get(t, app, "/health/json", ""))

	total, _ := mr.Get(KeyReqTotal)
	assert.Equal(t, "2", total)
	errCount, _ := mr.Get(KeyReqErrors)
	assert.Equal(t, "1", errCount)
	entries, err := mr.List(KeyErrorLog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "db gone")
	assert.Contains(t, entries[0], "/boom")
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".cars.jo", DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	do := func(origin, pass string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", origin)
		if pass != "" {
			req.Header.Set("dev-password", pass)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, 200, do("https://www.cars.jo", ""))
	assert.Equal(t, 403, do("https://evil.example", ""))
	assert.Equal(t, 200, do("https://preview.example", "letmein"))
}
