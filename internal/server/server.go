// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"time"

	_ "avatio/docs" // swagger docs
	"avatio/internal/cache"
	"avatio/internal/config"
	"avatio/internal/database"
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/notifications"
	"avatio/internal/repository"
	"avatio/internal/service"
	"avatio/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	cache          *cache.Cache
	store          storage.ObjectStore
	resolver       storage.URLResolver
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo repository.UserRepository
	notifier *notifications.Notifier
	hub      *notifications.Hub
	dispatch *service.Dispatcher

	setupService        *service.SetupService
	userService         *service.UserService
	catalogService      *service.CatalogService
	relationService     *service.RelationService
	reportService       *service.ReportService
	notificationService *service.NotificationService
	moderationService   *service.ModerationService
	shopService         *service.ShopService
	imageService        *service.ImageService
	sweepService        *service.SweepService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the cache, rate limits and real-time push are
// disabled then.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore) (*Server, error) {
	if cfg == nil || db == nil || store == nil {
		return nil, errors.New("server: config, database and object store are required")
	}

	c := cache.New(redisClient)
	resolver := storage.NewURLResolver(cfg.StoragePublicURL)

	userRepo := repository.NewUserRepository(db, c)
	setupRepo := repository.NewSetupRepository(db, c)
	draftRepo := repository.NewDraftRepository(db)
	itemRepo := repository.NewItemRepository(db, c)
	tagRepo := repository.NewTagRepository(db, c)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	shopRepo := repository.NewShopRepository(db)
	refRepo := repository.NewImageReferenceRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		cache:          c,
		store:          store,
		resolver:       resolver,
		promMiddleware: middleware.InitMetrics("avatio-api"),
		userRepo:       userRepo,
	}

	// Publisher stays a nil interface without Redis.
	var publisher service.Publisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}
	s.dispatch = service.NewDispatcher(notificationRepo, auditRepo, c, publisher)

	s.setupService = service.NewSetupService(setupRepo, draftRepo, itemRepo, userRepo, refRepo, store, resolver, s.dispatch)
	s.userService = service.NewUserService(userRepo, setupRepo, c, resolver, s.dispatch)
	s.catalogService = service.NewCatalogService(itemRepo, tagRepo, s.dispatch)
	s.relationService = service.NewRelationService(relationRepo, userRepo, setupRepo, s.dispatch)
	s.reportService = service.NewReportService(reportRepo, setupRepo, itemRepo, userRepo, s.dispatch)
	s.notificationService = service.NewNotificationService(notificationRepo)
	s.moderationService = service.NewModerationService(userRepo, setupRepo, badgeRepo, auditRepo, s.dispatch)
	s.shopService = service.NewShopService(shopRepo, badgeRepo, service.AgentFetcher{}, c)
	s.imageService = service.NewImageService(store, resolver, cfg)
	s.sweepService = service.NewSweepService(refRepo, store, resolver, cfg.SweepGraceWindow)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewValidationError("Too many requests, please try again later."))
		},
	}))

	app.Use(middleware.SessionResolver(middleware.SessionConfig{
		JWTSecret:   s.config.JWTSecret,
		AdminAPIKey: s.config.AdminAPIKey,
		CronSecret:  s.config.CronSecret,
	}, s.userRepo))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/swagger/*", swagger.HandlerDefault)

	requireSession := middleware.Gate(middleware.RequireSession)
	active := middleware.Gate(middleware.ActiveSession)
	adminOnly := middleware.Gate(middleware.AdminOnly)
	cronOnly := middleware.Gate(middleware.CronOnly)

	// Setups. Draft routes come before the generic /:id routes.
	setups := api.Group("/setups")
	setups.Get("/", s.ListSetups)
	setups.Get("/drafts", requireSession, s.ListDrafts)
	setups.Post("/drafts", active, s.CreateDraft)
	setups.Put("/drafts/:id", active, s.UpdateDraft)
	setups.Delete("/drafts/:id", requireSession, s.DeleteDraft)
	setups.Post("/", active, middleware.RateLimit(s.redis, 10, 10*time.Minute, "create_setup"), s.CreateSetup)
	setups.Post("/:id/bookmark", active, s.BookmarkSetup)
	setups.Delete("/:id/bookmark", requireSession, s.RemoveBookmark)
	setups.Get("/:id", s.GetSetup)
	setups.Patch("/:id", active, s.UpdateSetup)
	setups.Delete("/:id", active, s.DeleteSetup)

	items := api.Group("/items")
	items.Get("/", s.SearchItems)
	items.Get("/:id", s.GetItem)

	api.Get("/tags", s.ListTags)

	api.Post("/images", active,
		middleware.RateLimit(s.redis, 30, 10*time.Minute, "upload_image"), s.UploadImage)

	reports := api.Group("/reports", active,
		middleware.RateLimit(s.redis, 10, 10*time.Minute, "report"))
	reports.Post("/setups", s.ReportSetup)
	reports.Post("/items", s.ReportItem)
	reports.Post("/users", s.ReportUser)

	me := api.Group("/me", requireSession)
	me.Get("/", s.GetMe)
	me.Patch("/", active, s.UpdateMe)
	me.Get("/bookmarks", s.ListBookmarks)
	me.Get("/mutes", s.ListMutes)
	me.Post("/shops/code", active, s.IssueShopCode)
	me.Post("/shops/verify", active,
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "shop_verify"), s.VerifyShop)

	users := api.Group("/users")
	users.Get("/:id/setups", s.GetUserSetups)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", active, s.FollowUser)
	users.Delete("/:id/follow", requireSession, s.UnfollowUser)
	users.Post("/:id/mute", requireSession, s.MuteUser)
	users.Delete("/:id/mute", requireSession, s.UnmuteUser)
	users.Get("/:id", s.GetUserProfile)

	notifs := api.Group("/notifications", requireSession)
	notifs.Get("/", s.ListNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Patch("/:id", s.SetNotificationRead)

	api.Post("/ws/ticket", requireSession, s.IssueWSTicket)
	api.Get("/ws/notifications", s.WSTicketAuth(), s.NotificationsWebsocketHandler())

	api.Get("/cron/unused-images", cronOnly, s.PreviewUnusedImages)
	api.Delete("/cron/unused-images", cronOnly, s.DeleteUnusedImages)

	admin := api.Group("/admin", adminOnly)
	admin.Get("/users", s.AdminSearchUsers)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Post("/users/:id/unban", s.UnbanUser)
	admin.Patch("/users/:id/role", s.SetUserRole)
	admin.Post("/users/:id/badges/:kind", s.GrantBadge)
	admin.Delete("/users/:id/badges/:kind", s.RevokeBadge)
	admin.Patch("/setups/:id/visibility", s.SetSetupVisibility)
	admin.Patch("/items/:id", s.AdminUpdateItem)
	admin.Get("/reports/:kind", s.ListReports)
	admin.Patch("/reports/:kind/:id", s.ResolveReport)
	admin.Post("/notifications", s.SendNotification)
	admin.Get("/audit-logs", s.ListAuditLogs)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "avatio API",
		BodyLimit: int(s.imageService.MaxUploadSizeBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				appErr := &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message}
				return models.RespondWithError(c, fe.Code, appErr)
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusTooManyRequests:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeAuthentication
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	}
	return models.CodeInternal
}

// Start wires the background workers and starts listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}
	s.sweepService.StartScheduler(s.shutdownCtx, s.config.SweepInterval)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	// Let detached notification and audit writes land before the pool closes.
	s.dispatch.Wait()

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
