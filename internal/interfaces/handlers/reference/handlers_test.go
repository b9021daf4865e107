package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	refsvc "carmarket-backend/internal/application/reference"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReferenceApp(t *testing.T) (dbtest.Catalog, *fiber.App) {
	db := dbtest.Open(t)
	c := dbtest.SeedCatalog(t, db)
	h := &Handlers{Service: &refsvc.Service{DB: db}}
	app := fiber.New()
	app.Get("/brands", h.Brands)
	app.Get("/brands/:brandId/models", h.Models)
	app.Post("/brands", h.CreateBrand)
	app.Post("/brands/:brandId/models", h.CreateModel)
	app.Get("/countries/:countryId/governorates", h.Governorates)
	app.Get("/transmissions", h.Transmissions)
	return c, app
}

func getJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
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
	return resp.StatusCode, out
}

func TestListEndpoints(t *testing.T) {
	c, app := setupReferenceApp(t)

	status, body := getJSON(t, app, "GET", "/brands", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = getJSON(t, app, "GET", fmt.Sprintf("/brands/%d/models", c.Toyota.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	models := body["data"].([]interface{})
	require.Len(t, models, 2)
	assert.Equal(t, "كامري", models[0].(map[string]interface{})["name_ar"])

	status, _ = getJSON(t, app, "GET", "/brands/abc/models", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = getJSON(t, app, "GET", "/brands/999/models", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = getJSON(t, app, "GET", fmt.Sprintf("/countries/%d/governorates", c.Jordan.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = getJSON(t, app, "GET", "/transmissions", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)
}

func TestCreateEndpoints(t *testing.T) {
	c, app := setupReferenceApp(t)

	status, body := getJSON(t, app, "POST", "/brands", map[string]string{"name_en": "Mazda", "name_ar": "مازدا", "logo_url": "https://cdn/m.png"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Mazda", body["data"].(map[string]interface{})["name_en"])

	status, _ = getJSON(t, app, "POST", "/brands", map[string]string{"name_en": "Mazda", "name_ar": "مازدا"})
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = getJSON(t, app, "POST", "/brands", map[string]string{"name_en": "Only English"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = getJSON(t, app, "POST", fmt.Sprintf("/brands/%d/models", c.Kia.ID), map[string]string{"name_en": "Rio", "name_ar": "ريو"})
	assert.Equal(t, fiber.StatusCreated, status)
	status, _ = getJSON(t, app, "POST", "/brands/999/models", map[string]string{"name_en": "Rio", "name_ar": "ريو"})
	assert.Equal(t, fiber.StatusNotFound, status)
}
