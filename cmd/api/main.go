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
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/staylink/guestgate/internal/handlers"
	"github.com/staylink/guestgate/internal/mailer"
	"github.com/staylink/guestgate/internal/notify"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/config"
	"github.com/staylink/guestgate/pkg/database"
	"github.com/staylink/guestgate/pkg/events"
	"github.com/staylink/guestgate/pkg/logger"
	mw "github.com/staylink/guestgate/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis
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

	// Initialize repositories
	hotelRepo := repository.NewHotelRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	verifyRepo := repository.NewVerifyRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(redisClient)
	idempotencyStore := repository.NewIdempotencyStore(redisClient)

	// Initialize mailer
	mailService := selectMailer(cfg)

	// Initialize services
	tokenService := service.NewTokenService(hotelRepo, eventBus, cfg)
	registrationService := service.NewRegistrationService(userRepo, hotelRepo, verifyRepo, mailService, eventBus, cfg)
	authService := service.NewAuthService(userRepo, cfg)
	bookingService := service.NewBookingService(bookingRepo, eventBus)

	// Booking notifications ride the event bus
	notifyWorker := notify.NewWorker(eventBus, bookingRepo, userRepo, mailService)
	if err := notifyWorker.Start(); err != nil {
		logger.Error("Failed to start notification worker", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	h := handlers.New(tokenService, registrationService, authService, bookingService, hotelRepo, rateLimitRepo, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/", func(r chi.Router) {
		// Public: hotel discovery and QR resolution
		r.Get("/hotels", h.ListHotels)
		r.With(h.RateLimited(20, time.Minute)).Post("/guest/qr/validate", h.ValidateToken)
		r.With(h.RateLimited(10, time.Minute)).Post("/guest/qr/decode", h.DecodeImage)

		// Public: registration and sessions
		r.With(h.RateLimited(5, time.Minute)).Post("/guest/register", h.Register)
		r.With(h.RateLimited(10, time.Minute)).Post("/auth/login", h.Login)
		r.Get("/auth/session", h.Session)
		r.Post("/auth/logout", h.Logout)
		r.Post("/auth/verify-email", h.VerifyEmail)
		r.With(h.RateLimited(3, time.Minute)).Post("/auth/resend-verification", h.ResendVerification)

		// Guest bookings
		r.Route("/bookings", func(r chi.Router) {
			r.Use(h.RequireRole("guest"))
			r.With(mw.Idempotency(idempotencyStore)).Post("/", h.CreateBooking)
			r.Get("/", h.ListMyBookings)
			r.Post("/{id}/cancel", h.CancelBooking)
		})

		// Service provider queue
		r.Route("/provider/bookings", func(r chi.Router) {
			r.Use(h.RequireRole("service_provider"))
			r.Get("/", h.ListHotelBookings)
			r.Post("/{id}/accept", h.AcceptBooking)
			r.Post("/{id}/start", h.StartBooking)
			r.Post("/{id}/complete", h.CompleteBooking)
		})

		// Hotel administration
		r.Route("/admin", func(r chi.Router) {
			r.Route("/hotels", func(r chi.Router) {
				r.With(h.RequireRole("super_admin")).Post("/", h.CreateHotel)
				r.Group(func(r chi.Router) {
					r.Use(h.RequireRole("hotel_admin"))
					r.Post("/{id}/qr/regenerate", h.RegenerateToken)
					r.Get("/{id}/qr/download", h.DownloadQR)
				})
			})
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

		logger.Info("Shutting down API service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API service error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
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
