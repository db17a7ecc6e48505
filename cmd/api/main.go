package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/config"
	"github.com/lingobuddy/server/internal/db"
	"github.com/lingobuddy/server/internal/db/migrations"
	httphandler "github.com/lingobuddy/server/internal/http"
	"github.com/lingobuddy/server/internal/http/handlers"
	"github.com/lingobuddy/server/internal/mail"
	"github.com/lingobuddy/server/internal/repo"
	"github.com/lingobuddy/server/internal/social"

	_ "github.com/lib/pq"
)

func main() {
	// Load .env if present (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	friendRepo := repo.NewFriendRepo(database)

	// Mail sender: SMTP when configured, log-only otherwise
	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		log.Println("SMTP not configured, using log-only mail sender")
		sender = mail.LogSender{}
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewService(jwtService, userRepo)
	recoveryService := auth.NewRecoveryService(userRepo, sender)
	googleAuth := auth.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, jwtService, userRepo)
	socialService := social.NewService(userRepo, friendRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.DevMode)
	passwordHandler := handlers.NewPasswordHandler(recoveryService)
	oauthHandler := handlers.NewOAuthHandler(googleAuth, cfg.OAuthSuccessURL, cfg.OAuthFailureURL, cfg.DevMode)
	socialHandler := handlers.NewSocialHandler(socialService)

	// Create router
	router := httphandler.NewRouter(authHandler, passwordHandler, oauthHandler, socialHandler, jwtService, userRepo)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runMigrations runs the embedded database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.Up(database, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
