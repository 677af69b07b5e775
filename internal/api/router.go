package api

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/securenexus/identity-api/internal/api/handler"
	"github.com/securenexus/identity-api/internal/api/metrics"
	"github.com/securenexus/identity-api/internal/api/middleware"
	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/service"
	"github.com/securenexus/identity-api/internal/infrastructure/config"
	mongostore "github.com/securenexus/identity-api/internal/infrastructure/db/mongo"
	redisstore "github.com/securenexus/identity-api/internal/infrastructure/db/redis"
	"github.com/securenexus/identity-api/internal/infrastructure/queue"
	"github.com/securenexus/identity-api/pkg/logger"
)

// NewRouter builds the Echo instance with all routes registered, seeds the
// system account, and rehydrates the persisted session. The passed context
// bounds startup I/O and stops the activity workers when cancelled.
//
// The singleton logger is initialised here from config; subsequent callers
// anywhere in the process share it via logger.Get.
func NewRouter(ctx context.Context, db *mongo.Database, rdb *redis.Client, cfg *config.Config) (*echo.Echo, error) {
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Persistence ---
	agentRepo := mongostore.NewAgentRepository(db)
	roleRepo := mongostore.NewRoleRepository(db)
	vault := mongostore.NewCredentialVault(db)
	sessionStore := redisstore.NewSessionStore(rdb)
	throttle := redisstore.NewLoginThrottle(rdb)

	if err := agentRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := agentRepo.SeedReserved(ctx); err != nil {
		return nil, err
	}

	// --- Session ---
	sessions := service.NewSessionManager(sessionStore, log)
	if err := sessions.Rehydrate(ctx, agentRepo); err != nil {
		return nil, err
	}
	go watchSessionState(ctx, sessions)

	// --- Async activity queue ---
	activity := service.NewActivityService(agentRepo, log)
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activity, log)
	dispatcher.Start(ctx)

	// --- Services ---
	authService := service.NewAuthService(agentRepo, vault, sessions, cfg.JWTSecret, 24*time.Hour, log).
		WithThrottle(throttle).
		WithActivityQueue(dispatcher)
	profileService := service.NewProfileService(agentRepo, roleRepo, vault, sessions, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	roleHandler := handler.NewRoleHandler(roleRepo)
	authMiddleware := middleware.Auth(cfg.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.Session)
	e.POST("/auth/impersonate", authHandler.Impersonate, authMiddleware, middleware.RequireCEO())
	e.DELETE("/auth/impersonate", authHandler.StopImpersonating, authMiddleware, middleware.RequireCEO())

	// --- Agent routes ---
	e.GET("/agents/:id", profileHandler.Get)
	e.GET("/agents/:id/roles", profileHandler.Roles)
	e.PATCH("/agents/:id", profileHandler.Update, authMiddleware)
	e.PUT("/agents/:id/password", profileHandler.ChangePassword, authMiddleware)
	e.DELETE("/agents/:id", profileHandler.Delete, authMiddleware)
	e.PUT("/agents/:id/roles/:role_id", profileHandler.AssignRole, authMiddleware, middleware.RequireCEO())
	e.DELETE("/agents/:id/roles/:role_id", profileHandler.RevokeRole, authMiddleware, middleware.RequireCEO())

	// --- Role routes ---
	e.GET("/roles", roleHandler.List)
	e.POST("/roles", roleHandler.Create, authMiddleware, middleware.RequireCEO())
	e.DELETE("/roles/:id", roleHandler.Delete, authMiddleware, middleware.RequireCEO())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}

// watchSessionState mirrors session transitions into the one-hot session
// gauge until ctx is cancelled.
func watchSessionState(ctx context.Context, sessions *service.SessionManager) {
	kinds := []domain.SessionKind{domain.SessionNone, domain.SessionAuthenticated, domain.SessionGuest}
	apply := func(current domain.SessionKind) {
		for _, k := range kinds {
			v := 0.0
			if k == current {
				v = 1.0
			}
			metrics.SessionState.WithLabelValues(string(k)).Set(v)
		}
	}
	apply(sessions.Snapshot().Kind)

	ch := sessions.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			apply(snap.Kind)
		}
	}
}
