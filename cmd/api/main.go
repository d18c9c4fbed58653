package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/serenespa/membership/internal/http/handlers"
	imw "github.com/serenespa/membership/internal/http/middleware"
	"github.com/serenespa/membership/internal/mailer"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/internal/service"
	"github.com/serenespa/membership/internal/storage"
	"github.com/serenespa/membership/pkg/config"
	"github.com/serenespa/membership/pkg/database"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
	mw "github.com/serenespa/membership/pkg/middleware"
)

func main() {
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Connect to Redis for rate limiting
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisOpts.Password = cfg.Redis.Password
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Proof file storage
	proofStore, err := storage.NewFSProofStore(cfg.Membership.ProofDir)
	if err != nil {
		logger.Error("Failed to initialize proof store", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	signupRepo := repository.NewSignupRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Initialize mailer
	var mailSvc mailer.Service
	if cfg.Email.DevMode {
		mailSvc = mailer.NewDevMailer()
	} else {
		mailSvc = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail, cfg.Email.AdminEmail)
	}

	// Initialize services
	notifier := service.NewAdminNotifier(notificationRepo, eventBus, mailSvc)
	sweeper := service.NewDeadlineSweeper(signupRepo, memberRepo, paymentRepo, notifier, eventBus, cfg.Membership.SweepInterval)
	authGateway := service.NewAuthGateway(userRepo, cfg)
	signupService := service.NewSignupService(signupRepo, memberRepo, authGateway, notifier, sweeper, eventBus, cfg)
	paymentService := service.NewPaymentService(signupRepo, paymentRepo, memberRepo, proofStore, notifier, eventBus)

	// Start the deadline sweep
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweeper.Start(sweepCtx)

	// Initialize handlers
	h := handlers.New(signupService, paymentService, authGateway, notificationRepo, cfg)
	limiter := imw.NewRateLimiter(redisClient, imw.RateLimitConfig{Requests: 10, Window: time.Minute})

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("membership"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/", func(r chi.Router) {
		// Provider onboarding routes
		r.Route("/signups", func(r chi.Router) {
			r.With(limiter.Limit).Post("/", h.SelectPlan)
			r.Get("/{id}", h.GetSignup)
			r.Post("/{id}/terms", h.AcceptTerms)
			r.Post("/{id}/portal", h.SelectPortal)
			r.With(limiter.Limit).Post("/{id}/account", h.CreateAccount)
			r.Post("/{id}/profile/complete", h.CompleteProfile)
			r.Post("/{id}/golive", h.SubmitGoLive)
			r.Post("/{id}/payment-proof", h.UploadPaymentProof)
		})

		// Session routes
		r.Post("/auth/login", h.Login)

		// Admin routes (JWT required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(imw.RequireJWT(cfg.Auth.JWTSecret, "admin"))
			r.Get("/payments", h.ListPaymentSubmissions)
			r.Post("/payments/{id}/approve", h.ApprovePayment)
			r.Post("/payments/{id}/reject", h.RejectPayment)
			r.Post("/signups/{id}/deactivate", h.DeactivateSignup)
			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down membership service...")
		stopSweep()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Membership service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting membership service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Membership service error", "error", err)
		os.Exit(1)
	}
}
