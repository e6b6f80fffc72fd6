package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/NITsush45/enter-bank/internal/config"
	"github.com/NITsush45/enter-bank/internal/database"
	"github.com/NITsush45/enter-bank/internal/handlers"
	mW "github.com/NITsush45/enter-bank/internal/middleware"
	"github.com/NITsush45/enter-bank/internal/scheduler"
	"github.com/NITsush45/enter-bank/internal/services"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("interest.accrual_spec", "INTEREST_ACCRUAL_SPEC")
	viper.BindEnv("interest.payout_spec", "INTEREST_PAYOUT_SPEC")
	viper.BindEnv("interest.timezone", "INTEREST_TIMEZONE")
	viper.BindEnv("schedule.runner_spec", "SCHEDULE_RUNNER_SPEC")
	viper.BindEnv("gift.amount", "GIFT_AMOUNT")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	interestCfg := config.LoadInterestConfig()
	scheduleCfg := config.LoadScheduleConfig()
	giftCfg := config.LoadGiftConfig()

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	users := services.NewSQLUserDirectory(db)
	billers := services.NewSQLBillerDirectory(db)
	notifier := services.NewRedisNotifier(redisClient)

	ledgerService := services.NewLedgerService(db, users, billers, notifier, giftCfg.Amount)
	interestService := services.NewInterestService(db)
	scheduleService := services.NewScheduleService(db, users, billers)
	paymentRunner := services.NewPaymentRunner(scheduleService, ledgerService, notifier)

	transferHandler := handlers.NewTransferHandler(ledgerService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	adminHandler := handlers.NewAdminHandler(ledgerService, interestService)

	// Time-driven jobs: daily accrual, payout cadence, due-payment batch
	jobs, err := scheduler.New(interestCfg, scheduleCfg, interestService, paymentRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Static file server for biller logos
	r.Handle("/static/biller-logos/*", http.StripPrefix("/static/biller-logos/",
		mW.StaticFileServer("./static/biller-logos")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			// Money movement
			r.Post("/transfers", transferHandler.Transfer)
			r.Post("/bill-payments", transferHandler.PayBill)
			r.Post("/gifts/claim", transferHandler.ClaimGift)
			r.Get("/transactions", transferHandler.History)
			r.Get("/transactions/{txId}", transferHandler.Detail)

			// Recurring payments
			r.Post("/schedules", scheduleHandler.Create)
			r.Get("/schedules", scheduleHandler.List)
			r.Put("/schedules/{scheduleId}/pause", scheduleHandler.Pause)
			r.Put("/schedules/{scheduleId}/resume", scheduleHandler.Resume)
			r.Delete("/schedules/{scheduleId}", scheduleHandler.Cancel)

			// Employee operations
			r.Post("/admin/deposits", adminHandler.Deposit)
			r.Get("/admin/deposits", adminHandler.DepositHistory)
			r.Put("/admin/interest-rates", adminHandler.SaveRate)
			r.Get("/admin/interest-rates", adminHandler.ListRates)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
