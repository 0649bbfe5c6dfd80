package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medsupply/supply-backend/internal/supply/events"
	"github.com/medsupply/supply-backend/internal/supply/handler"
	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/config"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/httputil"
	"github.com/medsupply/supply-backend/pkg/logger"
	"github.com/medsupply/supply-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("supply-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("supply-service", cfg.Server.Environment)
	log.Info().Msg("starting Supply Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	db.SetLockTimeout(cfg.Ledger.LockTimeout)

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewSupplyEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	reagentRepo := repository.NewReagentRepository(db)
	hospitalRepo := repository.NewHospitalRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	consumptionRepo := repository.NewConsumptionRepository(db)

	// Initialize services
	registryService := service.NewRegistryService(reagentRepo, hospitalRepo, log)
	ledgerService := service.NewLedgerService(db, stockRepo, movementRepo, publisher, log)
	deliveryService := service.NewDeliveryService(db, stockRepo, deliveryRepo, hospitalRepo, publisher, log)
	planningService := service.NewPlanningService(consumptionRepo, reagentRepo, log)
	reportService := service.NewReportService(deliveryRepo, stockRepo, log)

	// Initialize handlers
	reagentHandler := handler.NewReagentHandler(registryService, log)
	hospitalHandler := handler.NewHospitalHandler(registryService, log)
	stockHandler := handler.NewStockHandler(ledgerService, log)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService, log)
	planningHandler := handler.NewPlanningHandler(planningService, log)
	reportHandler := handler.NewReportHandler(reportService, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "supply-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/supply", func(r chi.Router) {
		// Reagent catalog, with per-reagent ledger and planning views
		r.Route("/reagents", func(r chi.Router) {
			r.Get("/", reagentHandler.List)
			r.Post("/", reagentHandler.Create)
			r.Get("/{id}", reagentHandler.Get)
			r.Put("/{id}", reagentHandler.Update)
			r.Delete("/{id}", reagentHandler.Delete)
			r.Get("/{id}/stock", stockHandler.GetBalance)
			r.Get("/{id}/movements", stockHandler.ListMovementsByReagent)
			r.Get("/{id}/consumption-rule", planningHandler.GetRule)
			r.Put("/{id}/consumption-rule", planningHandler.UpsertRule)
			r.Get("/{id}/consumption-rule/estimate", planningHandler.ProjectDemand)
		})

		// Hospitals and installed analyzers
		r.Route("/hospitals", func(r chi.Router) {
			r.Get("/", hospitalHandler.List)
			r.Post("/", hospitalHandler.Create)
			r.Get("/{id}", hospitalHandler.Get)
			r.Put("/{id}", hospitalHandler.Update)
			r.Delete("/{id}", hospitalHandler.Delete)
			r.Get("/{id}/analyzers", hospitalHandler.ListInstalled)
			r.Post("/{id}/analyzers", hospitalHandler.InstallAnalyzer)
			r.Delete("/{id}/analyzers/{installID}", hospitalHandler.RemoveInstalled)
		})

		// Analyzer models
		r.Route("/analyzers", func(r chi.Router) {
			r.Get("/", hospitalHandler.ListAnalyzers)
			r.Post("/", hospitalHandler.CreateAnalyzer)
			r.Get("/{id}", hospitalHandler.GetAnalyzer)
			r.Put("/{id}", hospitalHandler.UpdateAnalyzer)
			r.Delete("/{id}", hospitalHandler.DeleteAnalyzer)
		})

		// Warehouse balances and movements
		r.Get("/stock", stockHandler.ListBalances)
		r.Route("/movements", func(r chi.Router) {
			r.Get("/", stockHandler.ListMovements)
			r.Post("/", stockHandler.RecordMovement)
		})

		// Hospital deliveries
		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", deliveryHandler.List)
			r.Post("/", deliveryHandler.Create)
			r.Get("/{id}", deliveryHandler.Get)
			r.Delete("/{id}", deliveryHandler.Delete)
			r.Post("/{id}/items", deliveryHandler.AddItem)
		})
		r.Route("/delivery-items", func(r chi.Router) {
			r.Put("/{itemID}", deliveryHandler.UpdateItem)
			r.Delete("/{itemID}", deliveryHandler.DeleteItem)
		})

		// Workload profiles for consumption planning
		r.Route("/consumption-profiles", func(r chi.Router) {
			r.Get("/", planningHandler.ListProfiles)
			r.Post("/", planningHandler.CreateProfile)
			r.Get("/{id}", planningHandler.GetProfile)
			r.Put("/{id}", planningHandler.UpdateProfile)
			r.Delete("/{id}", planningHandler.DeleteProfile)
		})

		// Reports
		r.Get("/reports/usage", reportHandler.Usage)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
