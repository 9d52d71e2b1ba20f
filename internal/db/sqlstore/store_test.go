package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lspl/gradereco/internal/db"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "reco.db")
	s, err := Open(context.Background(), Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{"sqlite://reco.db", "sqlite", "reco.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"sqlite:///reco.db", "sqlite", "reco.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"sqlite:////var/lib/reco.db", "sqlite", "/var/lib/reco.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"postgres://u:p@localhost/reco", "postgres", "postgres://u:p@localhost/reco", false},
		{"postgresql://localhost/reco", "postgres", "postgresql://localhost/reco", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost/reco", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, _, err := parseURL(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, db.ErrUnsupported)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantDriver, driver)
			require.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM products WHERE division = ? AND notes <> '?' AND category = ?"

	require.Equal(t, q, Rebind(SQLite, q))
	require.Equal(t,
		"SELECT * FROM products WHERE division = $1 AND notes <> '?' AND category = $2",
		Rebind(Postgres, q))
	require.Equal(t, "SELECT 1", Rebind(Postgres, "SELECT 1"))
}

func TestSchema_Dialects(t *testing.T) {
	lite := strings.Join(Schema(SQLite), "\n")
	require.Contains(t, lite, "INTEGER PRIMARY KEY AUTOINCREMENT")
	require.NotContains(t, lite, "{{")

	pg := strings.Join(Schema(Postgres), "\n")
	require.Contains(t, pg, "BIGSERIAL PRIMARY KEY")
	require.Contains(t, pg, "DOUBLE PRECISION")
	require.NotContains(t, pg, "{{")

	require.Len(t, Schema(SQLite), 11)
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	require.Equal(t, SQLite, s.Dialect())

	for _, table := range []string{"tickets", "products", "rnd_records", "trial_records", "complaint_records"} {
		var n int
		require.NoError(t, s.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		require.Zero(t, n, table)
	}
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(q db.Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO products (lspl_grade) VALUES (?)", "Flux-GR-10")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, "INSERT INTO products (lspl_grade) VALUES (?)", "Plunger-XL"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, s.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n))
	require.Equal(t, 1, n)
}

func TestExec_WrapsErrors(t *testing.T) {
	s := openTemp(t)

	_, err := s.ExecContext(context.Background(), "INSERT INTO missing_table VALUES (?)", 1)
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, db.OpExec, dbErr.Op)
}

func TestWaitForReady(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.WaitForReady(context.Background(), time.Second))
}
