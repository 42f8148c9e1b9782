package source

import (
	"context"
	"database/sql"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	sqliteContractsQuery = `SELECT * FROM contracts WHERE tenant_id = ? ORDER BY created_at, id`
	sqliteVendorsQuery   = `SELECT * FROM vendors WHERE tenant_id = ? ORDER BY id`
)

// SQLite reads the contracts and vendors tables of one tenant from a SQLite
// database.
type SQLite struct {
	db     *sql.DB
	tenant string
	logger *zap.Logger
}

// NewSQLite opens the database at dsn.
func NewSQLite(dsn, tenant string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "source: open sqlite")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "source: configure sqlite")
	}
	return &SQLite{db: db, tenant: tenant, logger: logger}, nil
}

// Load queries both tables.
func (s *SQLite) Load(ctx context.Context) (record.RawBatch, error) {
	contracts, err := s.query(ctx, sqliteContractsQuery)
	if err != nil {
		return record.RawBatch{}, eris.Wrap(err, "source: query contracts")
	}
	vendors, err := s.query(ctx, sqliteVendorsQuery)
	if err != nil {
		return record.RawBatch{}, eris.Wrap(err, "source: query vendors")
	}

	batch := record.RawBatch{Contracts: contracts, Vendors: vendors}
	logLoaded(s.logger, "source.SQLite.Load", s.tenant, batch)
	return batch, nil
}

func (s *SQLite) query(ctx context.Context, query string) ([]record.Raw, error) {
	rows, err := s.db.QueryContext(ctx, query, s.tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []record.Raw
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		r := make(record.Raw, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				r[col] = string(b)
				continue
			}
			r[col] = values[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
