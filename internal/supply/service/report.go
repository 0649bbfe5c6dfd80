package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/medsupply/supply-backend/internal/supply/repository"
	"github.com/medsupply/supply-backend/pkg/logger"
)

// ReportService builds delivery usage reports over a trailing window:
// how much of each reagent went out per hospital, the implied monthly
// consumption rate, and how many months the current warehouse balance
// would cover at that rate.
type ReportService struct {
	deliveryRepo *repository.DeliveryRepository
	stockRepo    *repository.StockRepository
	logger       *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(deliveryRepo *repository.DeliveryRepository, stockRepo *repository.StockRepository, log *logger.Logger) *ReportService {
	return &ReportService{
		deliveryRepo: deliveryRepo,
		stockRepo:    stockRepo,
		logger:       log,
	}
}

// HospitalUsage is the delivered total for one reagent at one hospital
type HospitalUsage struct {
	HospitalID     string `json:"hospital_id"`
	HospitalName   string `json:"hospital_name"`
	ReagentID      string `json:"reagent_id"`
	ReagentName    string `json:"reagent_name"`
	DeliveredPacks int    `json:"delivered_packs"`
}

// ReagentRunway is the warehouse outlook for one reagent: total delivered
// over the window, the monthly rate that implies, and months of stock left.
// MonthsLeft is nil when nothing was delivered in the window.
type ReagentRunway struct {
	ReagentID      string   `json:"reagent_id"`
	ReagentName    string   `json:"reagent_name"`
	DeliveredPacks int      `json:"delivered_packs"`
	MonthlyAvg     float64  `json:"monthly_avg"`
	BalancePacks   int      `json:"balance_packs"`
	MonthsLeft     *float64 `json:"months_left,omitempty"`
}

// UsageReport is the full usage report for a trailing window
type UsageReport struct {
	Since       time.Time       `json:"since"`
	Days        int             `json:"days"`
	ByHospital  []HospitalUsage `json:"by_hospital"`
	ByReagent   []ReagentRunway `json:"by_reagent"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// BuildReport assembles a usage report over the trailing number of days
func (s *ReportService) BuildReport(ctx context.Context, days int) (*UsageReport, error) {
	if days <= 0 {
		days = 90
	}
	since := time.Now().AddDate(0, 0, -days)

	byHospital, err := s.deliveryRepo.AggregateDeliveredByHospital(ctx, since)
	if err != nil {
		return nil, err
	}
	byReagent, err := s.deliveryRepo.AggregateDeliveredByReagent(ctx, since)
	if err != nil {
		return nil, err
	}
	balances, err := s.stockRepo.ListBalances(ctx)
	if err != nil {
		return nil, err
	}

	report := buildUsageReport(since, days, byHospital, byReagent, balances)
	report.GeneratedAt = time.Now()
	return report, nil
}

// buildUsageReport folds the aggregates and balances into a report. Monthly
// average is delivered packs scaled to a 30 day month; months left is the
// balance divided by that average, undefined when the average is zero.
func buildUsageReport(since time.Time, days int, byHospital, byReagent []*repository.DeliveredAggregate, balances []*repository.WarehouseStock) *UsageReport {
	report := &UsageReport{
		Since:      since,
		Days:       days,
		ByHospital: make([]HospitalUsage, 0, len(byHospital)),
		ByReagent:  make([]ReagentRunway, 0, len(byReagent)),
	}

	for _, agg := range byHospital {
		report.ByHospital = append(report.ByHospital, HospitalUsage{
			HospitalID:     agg.HospitalID,
			HospitalName:   agg.HospitalName,
			ReagentID:      agg.ReagentID,
			ReagentName:    agg.ReagentName,
			DeliveredPacks: agg.DeliveredPacks,
		})
	}

	balanceByReagent := make(map[string]int, len(balances))
	for _, b := range balances {
		balanceByReagent[b.ReagentID] = b.QuantityPacks
	}

	months := float64(days) / 30.0
	seen := make(map[string]bool, len(byReagent))
	for _, agg := range byReagent {
		runway := ReagentRunway{
			ReagentID:      agg.ReagentID,
			ReagentName:    agg.ReagentName,
			DeliveredPacks: agg.DeliveredPacks,
			BalancePacks:   balanceByReagent[agg.ReagentID],
		}
		if months > 0 {
			runway.MonthlyAvg = float64(agg.DeliveredPacks) / months
		}
		if runway.MonthlyAvg > 0 {
			left := float64(runway.BalancePacks) / runway.MonthlyAvg
			runway.MonthsLeft = &left
		}
		report.ByReagent = append(report.ByReagent, runway)
		seen[agg.ReagentID] = true
	}

	// Reagents with stock on hand but no deliveries in the window still show
	// up, with no consumption rate.
	for _, b := range balances {
		if seen[b.ReagentID] {
			continue
		}
		report.ByReagent = append(report.ByReagent, ReagentRunway{
			ReagentID:    b.ReagentID,
			ReagentName:  b.ReagentName,
			BalancePacks: b.QuantityPacks,
		})
	}

	sort.Slice(report.ByReagent, func(i, j int) bool {
		return report.ByReagent[i].ReagentName < report.ByReagent[j].ReagentName
	})

	return report
}

// Render formats the report as plain text for the command line
func (r *UsageReport) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Usage report for the last %d days (since %s)\n\n", r.Days, r.Since.Format("2006-01-02"))

	b.WriteString("Delivered packs by hospital:\n")
	if len(r.ByHospital) == 0 {
		b.WriteString("  (no deliveries in window)\n")
	}
	for _, u := range r.ByHospital {
		fmt.Fprintf(&b, "  %s / %s: %d packs\n", u.HospitalName, u.ReagentName, u.DeliveredPacks)
	}

	b.WriteString("\nWarehouse outlook by reagent:\n")
	for _, rr := range r.ByReagent {
		months := "N/A"
		if rr.MonthsLeft != nil {
			months = fmt.Sprintf("%.1f months", *rr.MonthsLeft)
		}
		fmt.Fprintf(&b, "  %s: delivered %d, avg %.1f/month, balance %d, runway %s\n",
			rr.ReagentName, rr.DeliveredPacks, rr.MonthlyAvg, rr.BalancePacks, months)
	}

	return b.String()
}
