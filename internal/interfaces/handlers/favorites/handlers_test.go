package favorites

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	authsvc "carmarket-backend/internal/application/auth"
	favsvc "carmarket-backend/internal/application/favorites"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoritesEndpoints(t *testing.T) {
	db := dbtest.Open(t)
	c := dbtest.SeedCatalog(t, db)
	seller := dbtest.SeedUser(t, db, "seller@cars.jo", "user", true)
	buyer := dbtest.SeedUser(t, db, "buyer@cars.jo", "user", true)
	l := dbtest.SeedListing(t, db, domain.Listing{SellerID: seller.UserID, BrandID: c.Kia.ID, ModelID: c.Sportage.ID, ModelYear: 2021, Price: 21000, Approved: true})

	h := &Handlers{Service: &favsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		ctx.Locals("user", &authsvc.Claims{UserID: buyer.UserID, Email: buyer.Email, Role: buyer.Role})
		return ctx.Next()
	})
	app.Get("/favorites", h.List)
	app.Post("/favorites/:listingId", h.Add)
	app.Get("/favorites/:listingId/check", h.Check)
	app.Delete("/favorites/:listingId", h.Remove)

	call := func(method, path string) (int, map[string]interface{}) {
		resp, err := app.Test(httptest.NewRequest(method, path, nil))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		out := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(raw, &out))
		return resp.StatusCode, out
	}
	path := fmt.Sprintf("/favorites/%d", l.ID)

	status, _ := call("POST", path)
	assert.Equal(t, fiber.StatusCreated, status)
	status, body := call("POST", path)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Listing is already in favorites", body["error"].(map[string]interface{})["message"])
	status, _ = call("POST", "/favorites/999")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = call("POST", "/favorites/zero")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = call("GET", path+"/check")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]interface{})["is_favorite"])

	status, body = call("GET", "/favorites")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = call("DELETE", path)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call("DELETE", path)
	assert.Equal(t, fiber.StatusNotFound, status)
}
