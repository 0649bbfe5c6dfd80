package testutil

// SupplyMigrations returns the DDL statements for the supply service schema.
// Statements run in order; each is a standalone migration step.
func SupplyMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS reagents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) UNIQUE NOT NULL,
			unit VARCHAR(50) NOT NULL DEFAULT 'pack',
			pack_volume_ml NUMERIC(10,2),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS warehouse_stock (
			reagent_id UUID PRIMARY KEY REFERENCES reagents(id) ON DELETE CASCADE,
			quantity_packs INTEGER NOT NULL DEFAULT 0
				CONSTRAINT warehouse_stock_quantity_packs_non_negative CHECK (quantity_packs >= 0),
			last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			reagent_id UUID NOT NULL REFERENCES reagents(id) ON DELETE CASCADE,
			movement_type VARCHAR(10) NOT NULL
				CONSTRAINT stock_movements_movement_type_valid CHECK (movement_type IN ('IN', 'OUT')),
			quantity INTEGER NOT NULL
				CONSTRAINT stock_movements_quantity_positive CHECK (quantity > 0),
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_stock_movements_reagent ON stock_movements(reagent_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS hospitals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			contact_person VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(50) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS analyzers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			model_code VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS hospital_analyzers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			hospital_id UUID NOT NULL REFERENCES hospitals(id) ON DELETE CASCADE,
			analyzer_id UUID NOT NULL REFERENCES analyzers(id) ON DELETE CASCADE,
			serial_number VARCHAR(100),
			installation_date DATE,
			CONSTRAINT hospital_analyzers_hospital_serial UNIQUE (hospital_id, serial_number)
		)`,

		`CREATE TABLE IF NOT EXISTS hospital_deliveries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			hospital_id UUID NOT NULL REFERENCES hospitals(id) ON DELETE CASCADE,
			delivered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			note TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS hospital_delivery_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			delivery_id UUID NOT NULL REFERENCES hospital_deliveries(id) ON DELETE CASCADE,
			reagent_id UUID NOT NULL REFERENCES reagents(id),
			quantity_packs INTEGER NOT NULL
				CONSTRAINT hospital_delivery_items_quantity_positive CHECK (quantity_packs > 0)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_delivery_items_delivery ON hospital_delivery_items(delivery_id)`,

		`CREATE TABLE IF NOT EXISTS consumption_rules (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			reagent_id UUID NOT NULL REFERENCES reagents(id) ON DELETE CASCADE,
			ml_per_test NUMERIC(10,2) NOT NULL DEFAULT 0,
			ml_per_wash NUMERIC(10,2) NOT NULL DEFAULT 0,
			washes_per_week INTEGER NOT NULL DEFAULT 0,
			CONSTRAINT consumption_rules_reagent UNIQUE (reagent_id)
		)`,

		`CREATE TABLE IF NOT EXISTS consumption_profiles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			hospital_id UUID NOT NULL REFERENCES hospitals(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			tests_per_day NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// SupplyTables lists the supply schema tables in dependency order, children
// first, for truncation between tests.
func SupplyTables() []string {
	return []string{
		"consumption_profiles",
		"consumption_rules",
		"hospital_delivery_items",
		"hospital_deliveries",
		"hospital_analyzers",
		"analyzers",
		"stock_movements",
		"warehouse_stock",
		"hospitals",
		"reagents",
	}
}
