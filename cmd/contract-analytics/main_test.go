package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/contract-analytics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolio = `contracts:
  - id: c-1
    status: active
    value: 1000
    vendor_id: v-1
    contract_type: service
    created_at: 2025-01-15
  - id: c-2
    status: active
    value: 2000
    vendor_id: v-1
    contract_type: service
    created_at: 2025-02-15
  - title: no id
    value: 5
vendors:
  - id: v-1
    name: Acme
    performance_score: 90
    compliance_score: 95
    risk_level: low
`

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		logging  config.LoggingConfig
		override string
		wantErr  bool
	}{
		{"defaults", config.LoggingConfig{}, "", false},
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"override wins", config.LoggingConfig{Level: "bogus"}, "warn", false},
		{"invalid level", config.LoggingConfig{Level: "verbose"}, "", true},
		{"invalid format", config.LoggingConfig{Format: "xml"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := initializeLogger(tt.logging, tt.override)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(portfolio), 0o600))

	out, err := runRoot(t, "analyze", "--path", path, "--output-format", "json", "--log-level", "error")
	require.NoError(t, err)

	var res struct {
		Stats struct {
			Total      int     `json:"total"`
			TotalValue float64 `json:"totalValue"`
		} `json:"stats"`
		Normalization struct {
			Contracts struct {
				Dropped int `json:"dropped"`
			} `json:"contracts"`
		} `json:"normalization"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 3000.0, res.Stats.TotalValue)
	assert.Equal(t, 1, res.Normalization.Contracts.Dropped)
}

func TestAnalyzeCommandCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(portfolio), 0o600))

	out, err := runRoot(t, "analyze", "--path", path, "--output-format", "csv", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "month,kind,amount\n2025-01,historical,1000.00\n2025-02,historical,2000.00\n")
}

func TestAnalyzeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"bad output format", []string{"analyze", "--path", "x.yaml", "--output-format", "xml", "--log-level", "error"}},
		{"unknown driver", []string{"analyze", "--source", "mongo", "--log-level", "error"}},
		{"missing file", []string{"analyze", "--path", filepath.Join(dir, "missing.yaml"), "--log-level", "error"}},
		{"missing config", []string{"--config", filepath.Join(dir, "missing.yaml"), "analyze"}},
		{"bad log level", []string{"--log-level", "loud", "analyze"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
