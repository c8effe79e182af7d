package router

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"media-tracker/internal/handler"
	"media-tracker/internal/metrics"
	"media-tracker/internal/middleware"
	"media-tracker/internal/service"
)

// APIPrefix is the mount point of every API route.
const APIPrefix = "/api/v1"

// Deps holds what the HTTP surface needs.
type Deps struct {
	Media    *service.MediaService
	Locks    *service.LockService
	Social   *service.SocialService
	Settings *service.SettingsService
	Catalog  *service.CatalogService

	Verifier middleware.TokenVerifier

	// Optional.
	RateLimiter  middleware.Limiter
	Metrics      *metrics.Metrics
	SwaggerYAML  []byte
	SwaggerTitle string
	AccessLog    bool
}

// NewApp builds the Fiber app with every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Media Tracker",
		ServerHeader: "Media-Tracker",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				return handler.InternalError(c, code, err)
			}
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get(metrics.Path, d.Metrics.Handler())
	}

	if d.SwaggerYAML != nil {
		title := d.SwaggerTitle
		if title == "" {
			title = "Media Tracker"
		}
		handler.RegisterSwagger(app, title, d.SwaggerYAML)
	}

	api := app.Group(APIPrefix)
	api.Use(middleware.Auth(d.Verifier, APIPrefix+"/health"))
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Handler())
	}
	api.Get("/health", handler.Health)

	media := handler.NewMediaHandler(d.Media)
	api.Post("/mediaItems", media.CreateItem)
	api.Get("/mediaItems", media.ListItems)
	api.Get("/mediaItems/queue-number", media.NextQueueNumber)
	api.Get("/mediaItems/categories", media.ListCategories)
	api.Get("/mediaItems/incomplete", media.ListIncomplete)
	api.Get("/mediaItems/:id", media.GetItem)
	api.Delete("/mediaItems/:id", media.DeleteItem)
	api.Patch("/mediaItems/:id/progress", media.UpdateProgress)

	social := handler.NewSocialHandler(d.Social)
	api.Get("/mediaItems/:id/comments", social.ListComments)
	api.Post("/mediaItems/:id/comments", social.CreateComment)
	api.Get("/comments/:id/replies", social.ListReplies)
	api.Post("/comments/:id/replies", social.CreateReply)
	api.Delete("/comments/:id", social.DeleteComment)
	api.Post("/friends/requests", social.SendFriendRequest)
	api.Get("/friends/requests", social.ListFriendRequests)
	api.Post("/friends/requests/:id/accept", social.AcceptFriendRequest)
	api.Post("/friends/requests/:id/decline", social.DeclineFriendRequest)
	api.Get("/friends", social.ListFriends)
	api.Delete("/friends/:id", social.RemoveFriend)

	locks := handler.NewLockHandler(d.Locks)
	api.Get("/lockedItem", locks.GetLock)
	api.Get("/lockedItems", locks.ListLocks)
	api.Post("/createLockedItem", locks.CreateLock)
	api.Post("/lockedItem/progress", locks.UpdateProgress)
	api.Post("/lockedItem/clear", locks.ClearLock)
	api.Get("/clearedItems", locks.ListCleared)

	settings := handler.NewSettingsHandler(d.Settings)
	api.Get("/settings", settings.GetSettings)
	api.Put("/settings", settings.UpdateSettings)

	catalog := handler.NewCatalogHandler(d.Catalog)
	api.Get("/catalog/search", catalog.Search)
	api.Get("/catalog/:type/:id/duration", catalog.Duration)

	return app
}
