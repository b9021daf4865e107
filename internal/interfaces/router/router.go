package router

import (
	"carmarket-backend/bootstrap"
	"carmarket-backend/internal/constants"
	"carmarket-backend/internal/infrastructure/database"
	authhandler "carmarket-backend/internal/interfaces/handlers/auth"
	favhandler "carmarket-backend/internal/interfaces/handlers/favorites"
	healthhandler "carmarket-backend/internal/interfaces/handlers/health"
	listhandler "carmarket-backend/internal/interfaces/handlers/listings"
	refhandler "carmarket-backend/internal/interfaces/handlers/reference"
	uploadhandler "carmarket-backend/internal/interfaces/handlers/uploads"
	userhandler "carmarket-backend/internal/interfaces/handlers/user"
	"carmarket-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateApp wires the HTTP surface onto an assembled runtime.
func CreateApp(rt *bootstrap.Runtime) *fiber.App {
	cfg := rt.Config
	bodyLimit := 4 * 1024 * 1024
	if limit := int(cfg.MediaMaxBytes) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(rt.Rdb))

	hh := &healthhandler.Handlers{
		Rdb:            rt.Rdb,
		DB:             &database.Pinger{DB: rt.DB},
		Options:        rt.Health,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	requireAuth := middleware.RequireAuth(rt.Auth)
	api := app.Group("/api/v1")

	// Auth
	ah := &authhandler.Handlers{Service: rt.Auth}
	ag := api.Group("/auth")
	ag.Post("/register", ah.Register)
	ag.Post("/login", ah.Login)
	ag.Get("/me", requireAuth, ah.Me)
	ag.Post("/logout", requireAuth, ah.Logout)

	// Users
	uh := &userhandler.Handlers{Service: rt.Users}
	ug := api.Group("/users", requireAuth)
	ug.Get("/me", uh.GetMe)
	ug.Put("/me", uh.UpdateMe)

	// Reference data
	rh := &refhandler.Handlers{Service: rt.Reference}
	rg := api.Group("/reference")
	rg.Get("/brands", rh.Brands)
	rg.Get("/brands/:brandId/models", rh.Models)
	rg.Get("/models/:modelId/trims", rh.Trims)
	rg.Get("/body-styles", rh.BodyStyles)
	rg.Get("/transmissions", rh.Transmissions)
	rg.Get("/fuel-types", rh.FuelTypes)
	rg.Get("/seller-types", rh.SellerTypes)
	rg.Get("/countries", rh.Countries)
	rg.Get("/countries/:countryId/governorates", rh.Governorates)
	manageRef := middleware.AuthorizePermission(constants.ManageReferenceData)
	rg.Post("/brands", requireAuth, manageRef, rh.CreateBrand)
	rg.Post("/brands/:brandId/models", requireAuth, manageRef, rh.CreateModel)
	rg.Post("/countries/:countryId/governorates", requireAuth, manageRef, rh.CreateGovernorate)

	// Listings
	lh := &listhandler.Handlers{Service: rt.Listings, Events: rt.ListingEvents}
	lg := api.Group("/listings")
	lg.Get("/", lh.Search)
	lg.Get("/mine", requireAuth, lh.Mine)
	lg.Get("/mine/:id", requireAuth, lh.GetMine)
	lg.Get("/:id", lh.Get)
	lg.Post("/", requireAuth, lh.Create)
	lg.Put("/:id", requireAuth, lh.Update)
	lg.Post("/:id/pause", requireAuth, lh.Pause())
	lg.Post("/:id/resume", requireAuth, lh.Resume())
	lg.Post("/:id/sold", requireAuth, lh.MarkSold())
	lg.Post("/:id/archive", requireAuth, lh.Archive())
	lg.Post("/:id/renew", requireAuth, lh.Renew())

	// Listing media
	if rt.Uploads != nil {
		mh := &uploadhandler.Handlers{Service: rt.Uploads}
		lg.Post("/:id/media/upload-url", requireAuth, mh.UploadURL)
		lg.Post("/:id/media", requireAuth, mh.Upload)
		lg.Delete("/:id/media/:mediaId", requireAuth, mh.Delete)
	}

	// Favorites
	fh := &favhandler.Handlers{Service: rt.Favorites}
	fg := api.Group("/favorites", requireAuth)
	fg.Get("/", fh.List)
	fg.Post("/:listingId", fh.Add)
	fg.Get("/:listingId/check", fh.Check)
	fg.Delete("/:listingId", fh.Remove)

	// Admin
	adm := api.Group("/admin", requireAuth)
	moderate := middleware.AuthorizePermission(constants.ModerateListings)
	adm.Get("/listings", moderate, lh.AdminSearch)
	adm.Post("/listings/expire-due", moderate, lh.ExpireDue)
	adm.Get("/listings/:id", moderate, lh.AdminGet)
	adm.Get("/listings/:id/events", middleware.AuthorizePermission(constants.ViewAuditLog), lh.ListingEvents)
	adm.Post("/listings/:id/approve", moderate, lh.Approve())
	adm.Post("/listings/:id/archive", moderate, lh.AdminArchive())
	adm.Post("/listings/:id/expire", moderate, lh.AdminExpire())
	adm.Post("/listings/:id/sold", moderate, lh.AdminMarkSold())

	manageUsers := middleware.AuthorizePermission(constants.ManageUsers)
	adm.Get("/users", manageUsers, uh.ListUsers)
	adm.Put("/users/:userId/role", manageUsers, uh.UpdateRole)
	adm.Put("/users/:userId/active", manageUsers, uh.SetActive)

	return app
}
