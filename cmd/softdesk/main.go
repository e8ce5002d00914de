package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/config"
	"github.com/softdesk-dev/softdesk/internal/router"
	"github.com/softdesk-dev/softdesk/internal/throttle"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))

	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	conn, err := db.ConnectDatabase(cfg.Database.Driver, cfg.Database.DSN)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	if err != nil {
		log.Fatalf("Failed to configure tokens: %v", err)
	}

	var guard throttle.LoginGuard = throttle.Noop{}

	if cfg.Redis.Addr != "" {
		limiter, err := throttle.NewRedisLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Login.MaxAttempts, cfg.Login.LockoutWindow)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer limiter.Close()
		guard = limiter
	} else {
		log.Println("REDIS_ADDR not set, login throttling disabled")
	}

	r := router.NewRouter(router.Deps{
		DB:             conn,
		Tokens:         tokens,
		Guard:          guard,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}
