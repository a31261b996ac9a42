// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/transport/httpserver/handler"
	"supplement-catalog-service/internal/transport/httpserver/middleware"
	"supplement-catalog-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port      int
	BodyLimit int
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg ServerConfig,
	searchSvc *service.SearchService,
	reviewSvc *service.ReviewService,
	favoritesSvc *service.FavoritesService,
	verifier domain.IdentityVerifier,
	pingers []middleware.Pinger,
	v *validator.Validator,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "supplement-catalog-service",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(pingers...))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(cors.New())
	app.Use(compress.New())

	// Create handlers
	catalogHandler := handler.NewCatalogHandler(searchSvc, v, logger)
	reviewHandler := handler.NewReviewHandler(reviewSvc, v, logger)
	favoritesHandler := handler.NewFavoritesHandler(favoritesSvc, logger)
	adminHandler := handler.NewAdminHandler(reviewSvc, logger)

	auth := middleware.RequireAuth(verifier, logger)

	registerRoutes(app, auth, catalogHandler, reviewHandler, favoritesHandler, adminHandler)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all API routes.
func registerRoutes(
	app *fiber.App,
	auth fiber.Handler,
	catalogHandler *handler.CatalogHandler,
	reviewHandler *handler.ReviewHandler,
	favoritesHandler *handler.FavoritesHandler,
	adminHandler *handler.AdminHandler,
) {
	// Health checks are handled by middleware (/livez, /readyz)

	v1 := app.Group("/api/v1")

	// Catalog
	catalog := v1.Group("/catalog")
	catalog.Get("/", catalogHandler.Search)
	catalog.Get("/:id", catalogHandler.GetByID)
	catalog.Get("/:id/reviews", reviewHandler.List)
	catalog.Post("/:id/reviews", auth, reviewHandler.Submit)

	// Favorites (all authenticated)
	favorites := v1.Group("/users/favorites", auth)
	favorites.Get("/", favoritesHandler.List)
	favorites.Post("/:entryId", favoritesHandler.Toggle)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Post("/audit", adminHandler.TriggerAudit)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		// Log based on status code - 404s are common and not server errors
		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		case code >= 400:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Error("unhandled error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "UNHANDLED_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
