package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuhub/docs/swagger"
	"menuhub/internal/api"
	"menuhub/internal/auth"
	"menuhub/internal/config"
	"menuhub/internal/db"
	"menuhub/internal/events"
	"menuhub/internal/ratelimit"
	"menuhub/internal/services"
	"menuhub/internal/tasks"
	"menuhub/internal/utils/logger"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// 🚀 Main function
// @title MenuHub API
// @version 1.0
// @description Multi-tenant restaurant backend: sessions, employees and branch menus.
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {

	appLog := logger.New("menuhub")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		appLog.Info("No .env file found, skipping environment variable loading")
	} else {
		appLog.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
		logger.SetLevel(logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	}

	// Load configuration. A missing secret aborts startup.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Session core
	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		AbsoluteSession: cfg.JWT.AbsoluteSession,
	})
	if err != nil {
		log.Fatalf("Failed to initialize token codec: %v", err)
	}
	cookies := auth.NewCookieBinder(auth.CookieBinderConfig{
		Name:     cfg.Cookie.Name,
		Secure:   cfg.IsProduction(),
		SameSite: auth.SameSite(cfg.Cookie.SameSite),
		Domain:   cfg.Cookie.Domain,
		MaxAge:   cfg.JWT.AbsoluteSession,
	})

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLog.Warn("Failed to close database connection: %v", err)
		}
	}()

	events.RegisterAuditLog()

	dbInstance := db.GetDB()
	store := services.NewIdentityStore(dbInstance)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	if err := services.SeedIdentities(startupCtx, store, cfg.Seed); err != nil {
		appLog.Warn("Failed to seed identities: %v", err)
	}

	// Redis backs the login limiter; asynq opens its own connections
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		appLog.Warn("Redis is unreachable, login throttling fails open: %v", err)
	}

	deps := services.SessionDeps{
		Store:   store,
		Codec:   codec,
		Cookies: cookies,
		Limiter: ratelimit.NewLoginLimiter(redisClient, ratelimit.Config{
			Prefix:      "login",
			MaxAttempts: cfg.Login.MaxAttempts,
			Window:      cfg.Login.Window,
		}),
	}

	if cfg.Google.ClientID != "" {
		verifier, err := auth.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.JWKSURL)
		if err != nil {
			log.Fatalf("Failed to initialize Google verifier: %v", err)
		}
		deps.Verifier = verifier
	} else {
		appLog.Info("GOOGLE_CLIENT_ID not set, federated login disabled")
	}

	avatars, err := services.NewS3AvatarStore(startupCtx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize S3 avatar store: %v", err)
	}
	if avatars != nil {
		deps.Avatars = avatars
	}

	sessions, err := services.NewSessionService(deps)
	if err != nil {
		log.Fatalf("Failed to initialize session service: %v", err)
	}

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(store, cfg.Cleanup.GuestRetention)
	taskClient := tasks.NewTaskClient(cfg.Redis)
	defer taskClient.Close()

	// Initialize task server
	taskServer := tasks.NewServer(cfg.Redis, taskHandler, appLog)
	if err := taskServer.Start(); err != nil {
		appLog.Error("Task server error", err)
	}

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(cfg.Redis, cfg.Cleanup, appLog)

	// Start task scheduler
	go func() {
		if err := taskScheduler.Start(); err != nil {
			appLog.Error("Task scheduler error", err)
		}
	}()

	// Initialize API server
	apiServer, err := api.NewServer(cfg, dbInstance, api.Deps{
		Codec:     codec,
		Cookies:   cookies,
		Store:     store,
		Sessions:  sessions,
		Employees: services.NewEmployeeService(store),
		Companies: services.NewCompanyService(dbInstance),
		Cleanup:   taskClient,
	})
	if err != nil {
		log.Fatalf("Failed to initialize API server: %v", err)
	}

	// Swagger documentation
	if u, err := url.Parse(cfg.Server.PublicURL); err == nil && u.Host != "" {
		swagger.SwaggerInfo.Host = u.Host
		swagger.SwaggerInfo.Schemes = []string{u.Scheme}
	}

	go func() {
		appLog.Success("API server started on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := apiServer.Start(); err != nil {
			appLog.Info("API server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown API server
	if err := apiServer.Shutdown(ctx); err != nil {
		appLog.Error("Failed to shutdown API server", err)
	}

	// Stop task scheduler
	taskScheduler.Stop()

	// Stop task server
	taskServer.Shutdown()

	// Let pending event handlers finish
	events.Drain()

	appLog.Info("Servers shutdown gracefully")
}
