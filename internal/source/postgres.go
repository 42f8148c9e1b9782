package source

import (
	"context"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of *pgxpool.Pool used by Postgres.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Numeric columns are cast so that rows decode to float64 rather than
// pgtype.Numeric.
const (
	postgresContractsQuery = `SELECT id::text AS id, title, status, value::float8 AS value, start_date, end_date, vendor_id::text AS vendor_id, contract_type, created_at FROM contracts WHERE tenant_id = $1 ORDER BY created_at, id`
	postgresVendorsQuery   = `SELECT id::text AS id, name, category, performance_score::float8 AS performance_score, compliance_score::float8 AS compliance_score, risk_score::float8 AS risk_score, total_spend::float8 AS total_spend FROM vendors WHERE tenant_id = $1 ORDER BY id`
)

// Postgres reads the contracts and vendors tables of one tenant.
type Postgres struct {
	pool   Pool
	tenant string
	logger *zap.Logger
}

// NewPostgres connects a pool to databaseURL.
func NewPostgres(ctx context.Context, databaseURL, tenant string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: connect postgres")
	}
	return NewPostgresWithPool(pool, tenant, logger), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool, tenant string, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, tenant: tenant, logger: logger}
}

// Load queries both tables.
func (p *Postgres) Load(ctx context.Context) (record.RawBatch, error) {
	contracts, err := p.query(ctx, postgresContractsQuery)
	if err != nil {
		return record.RawBatch{}, eris.Wrap(err, "source: query contracts")
	}
	vendors, err := p.query(ctx, postgresVendorsQuery)
	if err != nil {
		return record.RawBatch{}, eris.Wrap(err, "source: query vendors")
	}

	batch := record.RawBatch{Contracts: contracts, Vendors: vendors}
	logLoaded(p.logger, "source.Postgres.Load", p.tenant, batch)
	return batch, nil
}

func (p *Postgres) query(ctx context.Context, sql string) ([]record.Raw, error) {
	rows, err := p.pool.Query(ctx, sql, p.tenant)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, rowToRaw)
}

// rowToRaw keys the row's values by column name.
func rowToRaw(row pgx.CollectableRow) (record.Raw, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}
	fields := row.FieldDescriptions()
	r := make(record.Raw, len(fields))
	for i, fd := range fields {
		r[fd.Name] = values[i]
	}
	return r, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
