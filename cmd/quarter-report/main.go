package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/internal/supply/service"
	"github.com/medsupply/supply-backend/pkg/config"
	"github.com/medsupply/supply-backend/pkg/database"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// quarter-report prints a delivery usage report for a trailing window:
// delivered packs per hospital and reagent, the implied monthly consumption
// rate, and how long the current warehouse balance lasts at that rate.
func main() {
	days := flag.Int("days", 90, "size of the trailing report window in days")
	flag.Parse()

	cfg, err := config.Load("quarter-report")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("quarter-report", cfg.Server.Environment)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	deliveryRepo := repository.NewDeliveryRepository(db)
	stockRepo := repository.NewStockRepository(db)
	reportService := service.NewReportService(deliveryRepo, stockRepo, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := reportService.BuildReport(ctx, *days)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build report")
	}

	fmt.Print(report.Render())
}
