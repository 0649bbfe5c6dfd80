package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReagentFixture represents test reagent data
type ReagentFixture struct {
	ID           string
	Name         string
	Unit         string
	PackVolumeML *float64
	CreatedAt    time.Time
}

// HospitalFixture represents test hospital data
type HospitalFixture struct {
	ID            string
	Name          string
	ContactPerson string
	Phone         string
	CreatedAt     time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Reagent creates a reagent fixture with defaults
func (f *FixtureFactory) Reagent(opts ...func(*ReagentFixture)) ReagentFixture {
	seq := f.nextSeq()

	reagent := ReagentFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Reagent %d", seq),
		Unit:      "pack",
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&reagent)
	}

	return reagent
}

// WithReagentName sets the reagent name
func WithReagentName(name string) func(*ReagentFixture) {
	return func(r *ReagentFixture) {
		r.Name = name
	}
}

// WithPackVolume sets the reagent pack volume in milliliters
func WithPackVolume(ml float64) func(*ReagentFixture) {
	return func(r *ReagentFixture) {
		r.PackVolumeML = &ml
	}
}

// Hospital creates a hospital fixture with defaults
func (f *FixtureFactory) Hospital(opts ...func(*HospitalFixture)) HospitalFixture {
	seq := f.nextSeq()

	hospital := HospitalFixture{
		ID:            uuid.New().String(),
		Name:          fmt.Sprintf("Hospital %d", seq),
		ContactPerson: fmt.Sprintf("Contact %d", seq),
		Phone:         fmt.Sprintf("+49 30 %07d", seq),
		CreatedAt:     time.Now(),
	}

	for _, opt := range opts {
		opt(&hospital)
	}

	return hospital
}

// WithHospitalName sets the hospital name
func WithHospitalName(name string) func(*HospitalFixture) {
	return func(h *HospitalFixture) {
		h.Name = name
	}
}

// SeedReagent inserts a reagent fixture into the test database
func SeedReagent(t *testing.T, ctx context.Context, db *sqlx.DB, r ReagentFixture) {
	t.Helper()

	_, err := db.ExecContext(ctx,
		`INSERT INTO reagents (id, name, unit, pack_volume_ml) VALUES ($1, $2, $3, $4)`,
		r.ID, r.Name, r.Unit, r.PackVolumeML,
	)
	if err != nil {
		t.Fatalf("failed to seed reagent %s: %v", r.Name, err)
	}
}

// SeedHospital inserts a hospital fixture into the test database
func SeedHospital(t *testing.T, ctx context.Context, db *sqlx.DB, h HospitalFixture) {
	t.Helper()

	_, err := db.ExecContext(ctx,
		`INSERT INTO hospitals (id, name, contact_person, phone) VALUES ($1, $2, $3, $4)`,
		h.ID, h.Name, h.ContactPerson, h.Phone,
	)
	if err != nil {
		t.Fatalf("failed to seed hospital %s: %v", h.Name, err)
	}
}

// SeedStock inserts a warehouse balance row for a reagent
func SeedStock(t *testing.T, ctx context.Context, db *sqlx.DB, reagentID string, quantityPacks int) {
	t.Helper()

	_, err := db.ExecContext(ctx,
		`INSERT INTO warehouse_stock (reagent_id, quantity_packs) VALUES ($1, $2)
		 ON CONFLICT (reagent_id) DO UPDATE SET quantity_packs = EXCLUDED.quantity_packs`,
		reagentID, quantityPacks,
	)
	if err != nil {
		t.Fatalf("failed to seed stock for reagent %s: %v", reagentID, err)
	}
}

// QueryBalance reads the current balance for a reagent directly
func QueryBalance(t *testing.T, ctx context.Context, db *sqlx.DB, reagentID string) int {
	t.Helper()

	var balance int
	err := db.GetContext(ctx, &balance,
		`SELECT quantity_packs FROM warehouse_stock WHERE reagent_id = $1`, reagentID)
	if err != nil {
		t.Fatalf("failed to query balance for reagent %s: %v", reagentID, err)
	}
	return balance
}
