package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lspl/gradereco/internal/db/sqlstore"
	"github.com/lspl/gradereco/internal/domain"
)

// newTestStore opens a migrated SQLite database in a temp dir.
func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.Config{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func exec(t *testing.T, s *sqlstore.Store, query string, args ...any) {
	t.Helper()
	_, err := s.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func insertProduct(t *testing.T, s *sqlstore.Store, grade string, division, category any) {
	t.Helper()
	exec(t, s, `INSERT INTO products (lspl_grade, division, category, compatible_process, metal, temp_min_c, temp_max_c, notes)
		VALUES (?, ?, ?, 'GDC', 'Al', 200, 420, 'note')`, grade, division, category)
}

func insertTrial(t *testing.T, s *sqlstore.Store, customer, grade, outcome, notes string) {
	t.Helper()
	exec(t, s, `INSERT INTO trial_records (customer_name, lspl_grade, conditions, outcome, notes) VALUES (?, ?, '', ?, ?)`,
		customer, grade, outcome, notes)
}

func grades(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Grade
	}
	return out
}
