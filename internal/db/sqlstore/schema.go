package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/lspl/gradereco/internal/db"
)

const ticketColumns = `
	ticket_id TEXT UNIQUE,
	timestamp TEXT,
	email TEXT,
	required_by TEXT,
	requirement_type TEXT,
	division TEXT,
	category TEXT,
	requirement_details TEXT,
	priority TEXT,
	customer_name TEXT,
	remark TEXT,
	ticket_type TEXT,
	target_date TEXT,
	company_name TEXT,
	tt_assign_to TEXT,
	tt_assigned_date TEXT,
	status TEXT,
	proposed_grade TEXT,
	proposed_reason TEXT,
	notes TEXT,
	cc_email TEXT,
	zone TEXT`

// schemaTemplate is idempotent DDL; {{pk}} and {{real}} are filled per dialect.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS tickets (
	id {{pk}},` + ticketColumns + `
);

CREATE TABLE IF NOT EXISTS products (
	id {{pk}},
	lspl_grade TEXT NOT NULL UNIQUE,
	division TEXT,
	category TEXT,
	compatible_process TEXT,
	metal TEXT,
	temp_min_c {{real}},
	temp_max_c {{real}},
	notes TEXT
);

CREATE TABLE IF NOT EXISTS rnd_records (
	id {{pk}},
	lspl_grade TEXT,
	spec_summary TEXT,
	flags TEXT,
	constraints TEXT
);

CREATE TABLE IF NOT EXISTS trial_records (
	id {{pk}},
	customer_name TEXT,
	lspl_grade TEXT,
	conditions TEXT,
	outcome TEXT,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS complaint_records (
	id {{pk}},
	customer_name TEXT,
	lspl_grade TEXT,
	conditions TEXT,
	issue TEXT,
	severity TEXT
);

CREATE INDEX IF NOT EXISTS idx_products_division_category ON products(division, category);
CREATE INDEX IF NOT EXISTS idx_rnd_grade ON rnd_records(lspl_grade);
CREATE INDEX IF NOT EXISTS idx_trial_grade ON trial_records(lspl_grade);
CREATE INDEX IF NOT EXISTS idx_trial_customer ON trial_records(customer_name);
CREATE INDEX IF NOT EXISTS idx_complaint_grade ON complaint_records(lspl_grade);
CREATE INDEX IF NOT EXISTS idx_complaint_customer ON complaint_records(customer_name);
`

// Schema returns the DDL statements for d.
func Schema(d Dialect) []string {
	pk, realType := "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	if d == Postgres {
		pk, realType = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
	}
	ddl := strings.NewReplacer("{{pk}}", pk, "{{real}}", realType).Replace(schemaTemplate)

	var stmts []string
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// Migrate creates tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("%s: %w", firstLine(stmt), err)}
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
