package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/spacebook-api/internal/cache"
	"github.com/dimitrije/spacebook-api/internal/config"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/handlers"
	"github.com/dimitrije/spacebook-api/internal/jobs"
	authmw "github.com/dimitrije/spacebook-api/internal/middleware"
	"github.com/dimitrije/spacebook-api/internal/oauth"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

const housekeepingInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("REDIS_URL not set, timeline cache disabled")
	}
	timelineCache := cache.NewTimelineCache(rdb, cfg.TimelineCacheTTL, cfg.Location)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	spaceService := services.NewSpaceService(db, cfg.OccupancyPolicy)
	reservationService := services.NewReservationService(db, timelineCache)
	timelineService := services.NewTimelineService(db, spaceService, timelineCache, cfg.Location, cfg.TimelineWindow)
	dashboardService := services.NewDashboardService(db, spaceService, timelineService)
	emailService := services.NewEmailService(cfg.SMTP, cfg.BaseURL, cfg.Location)
	if !emailService.IsConfigured() {
		log.Println("SMTP not configured, decision emails disabled")
	}

	states := oauth.NewStateStore()
	providers := oauth.NewProviders(cfg)

	hub := sse.NewHub()
	go hub.Run()

	scheduler, err := jobs.New(tokenService, states, housekeepingInterval)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	authHandler := handlers.NewAuthHandler(cfg, providers, states, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	spaceHandler := handlers.NewSpaceHandler(spaceService)
	reservationHandler := handlers.NewReservationHandler(reservationService, hub, emailService)
	timelineHandler := handlers.NewTimelineHandler(timelineService, spaceService, cfg.Location)
	homeHandler := handlers.NewHomeHandler(dashboardService, cfg.Location)
	sseHandler := handlers.NewSSEHandler(hub, spaceService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(authmw.RequestLogger(logger))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Get("/home", homeHandler.Get)

	protected.Get("/spaces", spaceHandler.List)
	protected.Get("/spaces/:spaceId", spaceHandler.Get)
	protected.Get("/spaces/:spaceId/status", spaceHandler.Status)
	protected.Get("/spaces/:spaceId/timeline", timelineHandler.Space)
	protected.Get("/spaces/:spaceId/events", sseHandler.ConnectSpace)
	protected.Get("/timeline", timelineHandler.All)
	protected.Get("/events", sseHandler.ConnectAll)
	protected.Post("/sse/:clientId/subscribe/:spaceId", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:spaceId", sseHandler.Unsubscribe)

	protected.Get("/reservations", reservationHandler.List)
	protected.Post("/reservations", reservationHandler.Create)
	protected.Get("/reservations/:id", reservationHandler.Get)
	protected.Patch("/reservations/:id", reservationHandler.Update)
	protected.Delete("/reservations/:id", reservationHandler.Delete)

	admin := protected.Group("")
	admin.Use(authmw.RequireAdmin())

	admin.Post("/spaces", spaceHandler.Create)
	admin.Patch("/spaces/:spaceId", spaceHandler.Update)
	admin.Delete("/spaces/:spaceId", spaceHandler.Delete)
	admin.Post("/reservations/:id/approve", reservationHandler.Approve)
	admin.Post("/reservations/:id/reject", reservationHandler.Reject)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Failed to stop scheduler: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
