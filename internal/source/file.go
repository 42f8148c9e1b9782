package source

import (
	"context"
	"os"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var tenantKeys = []string{"tenant_id", "tenantId", "tenant"}

// File reads a YAML or JSON document of the form
// {contracts: [...], vendors: [...]}.
type File struct {
	path   string
	tenant string
	logger *zap.Logger
}

// NewFile returns a file source. When tenant is set, records that name a
// different tenant are skipped.
func NewFile(path, tenant string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{path: path, tenant: tenant, logger: logger}
}

// Load reads and decodes the file.
func (f *File) Load(ctx context.Context) (record.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return record.RawBatch{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return record.RawBatch{}, eris.Wrapf(err, "source: read %s", f.path)
	}

	batch, err := Decode(data)
	if err != nil {
		return record.RawBatch{}, eris.Wrapf(err, "source: decode %s", f.path)
	}
	if f.tenant != "" {
		batch.Contracts = forTenant(batch.Contracts, f.tenant)
		batch.Vendors = forTenant(batch.Vendors, f.tenant)
	}

	logLoaded(f.logger, "source.File.Load", f.tenant, batch)
	return batch, nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}

// Decode parses a YAML or JSON document into a raw batch.
func Decode(data []byte) (record.RawBatch, error) {
	var batch record.RawBatch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return record.RawBatch{}, err
	}
	return batch, nil
}

// forTenant keeps the records of tenant and those that name no tenant.
func forTenant(records []record.Raw, tenant string) []record.Raw {
	kept := make([]record.Raw, 0, len(records))
	for _, r := range records {
		owner, ok := tenantOf(r)
		if ok && owner != tenant {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func tenantOf(r record.Raw) (string, bool) {
	for _, key := range tenantKeys {
		if v, ok := r[key]; ok && v != nil {
			s, isString := v.(string)
			if !isString {
				return "", true
			}
			return s, true
		}
	}
	return "", false
}
