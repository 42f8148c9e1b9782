// Package source loads raw contract and vendor records for one tenant from a
// file, PostgreSQL or SQLite.
package source

import (
	"context"

	"github.com/iwvelando/contract-analytics/internal/config"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnknownDriver is returned by Open for an unsupported driver.
var ErrUnknownDriver = eris.New("source: unknown driver")

// Source delivers the raw records of one tenant.
type Source interface {
	Load(ctx context.Context) (record.RawBatch, error)
	Close() error
}

// Open returns the source selected by cfg.Driver. A nil logger discards
// output.
func Open(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case constants.SourceDriverFile:
		return NewFile(cfg.Path, cfg.Tenant, logger), nil
	case constants.SourceDriverPostgres:
		p, err := NewPostgres(ctx, cfg.DatabaseURL, cfg.Tenant, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case constants.SourceDriverSQLite:
		s, err := NewSQLite(cfg.Path, cfg.Tenant, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, eris.Wrapf(ErrUnknownDriver, "source: driver %q", cfg.Driver)
}

func logLoaded(logger *zap.Logger, op, tenant string, batch record.RawBatch) {
	logger.Debug("loaded records",
		zap.String("op", op),
		zap.String("tenant", tenant),
		zap.Int("contracts", len(batch.Contracts)),
		zap.Int("vendors", len(batch.Vendors)),
	)
}
