// Package server contains the HTML handlers of the blog and the Fiber wiring around them.
package server

import (
	"context"
	"fmt"
	"time"

	"scribe/internal/cache"
	"scribe/internal/config"
	"scribe/internal/middleware"
	"scribe/internal/repository"
	"scribe/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	serviceName      = "scribe"
	globalRateLimit  = 100
	loginRateLimit   = 10
	rateLimitWindow  = time.Minute
	readinessTimeout = 5 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	pageCache      *cache.PageCache
	views          *Views

	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	groupService   *service.GroupService
	imageService   *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies
// (see bootstrap.InitRuntime). redisClient may be nil, in which case the page
// cache lives in memory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	followRepo := repository.NewFollowRepository(db)

	images := service.NewImageService(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		pageCache:      cache.NewPageCache(redisClient, time.Duration(cfg.IndexCacheSeconds)*time.Second),
		views:          NewViews(nil),
		imageService:   images,
		postService:    service.NewPostService(postRepo, commentRepo, groupRepo, userRepo, images, cfg.PostsPerPage),
		commentService: service.NewCommentService(commentRepo, postRepo),
		followService:  service.NewFollowService(followRepo, userRepo),
		userService:    service.NewUserService(userRepo),
		groupService:   service.NewGroupService(groupRepo),
	}
	return s, nil
}

// PageCache exposes the home feed cache so callers can invalidate it.
func (s *Server) PageCache() *cache.PageCache {
	return s.pageCache
}

// NewApp builds the Fiber application with every middleware and route installed.
func (s *Server) NewApp() *fiber.App {
	maxUpload := s.config.ImageMaxUploadSizeMB
	if maxUpload <= 0 {
		maxUpload = service.DefaultImageMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:      "Scribe",
		Views:        s.views,
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    (maxUpload + 1) * 1024 * 1024,
		UnescapePath: true,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(s.SessionMiddleware())

	// Propagates request, user and trace ids into the user context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	limiterCfg := limiter.Config{
		Max:        globalRateLimit,
		Expiration: rateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}
	if s.redis != nil {
		limiterCfg.Storage = cache.NewRedisStorage(s.redis, "limiter:")
	}
	app.Use(limiter.New(limiterCfg))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	health := app.Group("/health")
	health.Get("/live", s.LivenessCheck)
	health.Get("/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.imageService.MediaRoot())

	app.Get("/", s.pageCache.Middleware(), s.Index)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/profile/:username", s.Profile)
	app.Get("/posts/:id", s.PostDetail)

	auth := s.LoginRequired()
	app.Get("/follow", auth, s.FollowIndex)
	app.Get("/create", auth, s.NewPostPage)
	app.Post("/create", auth, s.CreatePost)
	app.Get("/posts/:id/edit", auth, s.EditPostPage)
	app.Post("/posts/:id/edit", auth, s.UpdatePost)
	app.Post("/posts/:id/delete", auth, s.DeletePost)
	app.Post("/posts/:id/comment", auth, s.AddComment)
	app.Post("/profile/:username/follow", auth, s.FollowAuthor)
	app.Post("/profile/:username/unfollow", auth, s.UnfollowAuthor)

	// State changes need POST; a GET only shows where the form lives.
	app.Get("/posts/:id/delete", auth, redirectToPost)
	app.Get("/posts/:id/comment", auth, redirectToPost)
	app.Get("/profile/:username/follow", auth, redirectToProfile)
	app.Get("/profile/:username/unfollow", auth, redirectToProfile)

	accounts := app.Group("/auth")
	accounts.Get("/signup", s.SignupPage)
	accounts.Post("/signup", s.Signup)
	accounts.Get("/login", s.LoginPage)
	accounts.Post("/login", middleware.RateLimit(s.redis, loginRateLimit, rateLimitWindow, "login"), s.Login)
	accounts.All("/logout", s.Logout)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: the page cache falls back to memory.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
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

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

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
