package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dohwa-law/portal-gate/internal/handlers"
	"github.com/dohwa-law/portal-gate/internal/mailer"
	"github.com/dohwa-law/portal-gate/internal/repository"
	"github.com/dohwa-law/portal-gate/internal/service"
	"github.com/dohwa-law/portal-gate/pkg/config"
	"github.com/dohwa-law/portal-gate/pkg/database"
	"github.com/dohwa-law/portal-gate/pkg/events"
	"github.com/dohwa-law/portal-gate/pkg/logger"
	mw "github.com/dohwa-law/portal-gate/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run schema migrations before taking traffic
	if err := runMigrations(cfg.Database.URL); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis (idempotency cache)
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize mailer
	mailSvc := newMailer(cfg)

	// Initialize repositories
	credentialRepo := repository.NewCredentialRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(redisClient)

	// Initialize services
	verifier := service.NewVerificationService(credentialRepo, eventBus, cfg.Auth.EmergencySecret)
	credentials := service.NewCredentialService(credentialRepo, eventBus, mailSvc, cfg.Email.NotifyEmail)
	notifier := service.NewExpiryNotifier(credentialRepo, mailSvc, cfg.Email.NotifyEmail, cfg.Email.SweepInterval)

	// Initialize handlers
	h := handlers.New(verifier, credentials, cfg)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("portal-gate"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		// Password prompts
		r.Post("/verify", h.Verify)

		// Management API (admin credential screen)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireOperator)
			r.Get("/credentials", h.ListCredentials)
			r.With(mw.Idempotency(idempotencyRepo)).Post("/credentials", h.CreateCredential)
			r.Delete("/credentials/{id}", h.DeleteCredential)
			r.Get("/admin/secret", h.AdminStatus)
			r.Post("/admin/secret", h.SetAdminSecret)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting portal-gate service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := notifier.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("Shutting down portal-gate service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Portal-gate service error", "error", err)
		os.Exit(1)
	}
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func newMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, "Portal Gate", cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
	)
}
