package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvDatabaseAuthToken, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)

	require.Equal(t, DefaultURL, cfg.Source.URL)
	require.Equal(t, 2, cfg.Source.TableIndex)
	require.Equal(t, 0, cfg.Source.NameColumn)
	require.Equal(t, 2, cfg.Source.GDPColumn)
	require.Equal(t, "—", cfg.Source.Placeholder)
	require.Equal(t, DefaultCSV, cfg.Output.CSV)
	require.True(t, cfg.Output.CSVIndex)
	require.Equal(t, DefaultLog, cfg.Output.Log)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, DefaultDBFile, cfg.Database.File)
	require.Equal(t, DefaultTable, cfg.Database.Table)
	require.Equal(t, float64(100), cfg.Query.MinGDPBillions)
	require.False(t, cfg.SortByGDP)
	require.False(t, cfg.Source.CloudflareBypass)
	require.Equal(t, int64(10), int64(cfg.Source.Timeout().Seconds()))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvDatabaseAuthToken, "secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "gdp-etl.json5")
	err := os.WriteFile(path, []byte(`{
		source: { url: "http://localhost:9999/page", table_index: 0, cloudflare_bypass: true },
		output: { csv: "out/gdp.csv", csv_index: false },
		database: { table: "GDP" },
		query: { min_gdp_billions: 250.5 },
		sort_by_gdp: true,
	}`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999/page", cfg.Source.URL)
	require.Equal(t, 0, cfg.Source.TableIndex)
	require.Equal(t, 2, cfg.Source.GDPColumn)
	require.True(t, cfg.Source.CloudflareBypass)
	require.Equal(t, "out/gdp.csv", cfg.Output.CSV)
	require.False(t, cfg.Output.CSVIndex)
	require.Equal(t, DefaultLog, cfg.Output.Log)
	require.Equal(t, "GDP", cfg.Database.Table)
	require.Equal(t, DefaultDBFile, cfg.Database.File)
	require.Equal(t, 250.5, cfg.Query.MinGDPBillions)
	require.True(t, cfg.SortByGDP)
	require.Equal(t, "secret", cfg.Database.AuthToken)
}

func TestDatabaseConnection(t *testing.T) {
	db := Database{
		Driver:    "libsql",
		Url:       "libsql://gdp.example.turso.io",
		AuthToken: "token",
		Table:     DefaultTable,
	}
	conn := db.Connection()
	require.Equal(t, "libsql", conn.DriverName())
	require.Equal(t, db.Url, conn.Url)
	require.Equal(t, db.AuthToken, conn.AuthToken)
}
