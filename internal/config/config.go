package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"gdp-etl/lib/configutil"
	configlibsql "gdp-etl/lib/configutil/libsql"
	"gdp-etl/lib/telemetry"

	"github.com/joho/godotenv"
)

const (
	DefaultURL     = "https://web.archive.org/web/20230902185326/https://en.wikipedia.org/wiki/List_of_countries_by_GDP_%28nominal%29"
	DefaultCSV     = "Countries_by_GDP.csv"
	DefaultDBFile  = "World_Economies.db"
	DefaultTable   = "Countries_by_GDP"
	DefaultLog     = "etl_project_log.txt"
	DefaultMinGDP  = 100
	DefaultTimeout = 10
)

// environment variables that override the database connection, they are read
// after loading a .env file from the working directory
const (
	EnvDatabaseURL       = "GDP_ETL_DB_URL"
	EnvDatabaseAuthToken = "GDP_ETL_DB_AUTH_TOKEN"
)

type Source struct {
	URL string `json:"url"`
	// TimeoutSeconds bounds the page fetch.
	TimeoutSeconds int `json:"timeout_seconds"`
	// TableIndex is the 0-based position of the tbody holding the data among
	// all tbody elements of the page. It is ignored when Caption is set.
	TableIndex int `json:"table_index"`
	// Caption selects the table by its caption (or first header row) text.
	Caption string `json:"caption"`
	// NameColumn and GDPColumn are 0-based cell indices within a data row.
	NameColumn int    `json:"name_column"`
	GDPColumn  int    `json:"gdp_column"`
	// Placeholder marks a GDP cell without data.
	Placeholder string `json:"placeholder"`
	UserAgent   string `json:"user_agent"`
	// CloudflareBypass sends browser-like TLS and headers for hosts behind
	// cloudflare's bot check.
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

func (s Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type Output struct {
	CSV string `json:"csv"`
	// CSVIndex writes a leading row index column, on by default.
	CSVIndex bool   `json:"csv_index"`
	Log      string `json:"log"`
}

type Database struct {
	// Driver is one of "sqlite" (default), "libsql" or "postgres".
	Driver string `json:"driver"`
	// File is the sqlite database path.
	File string `json:"file"`
	// Url is the libsql server url or the postgres connection string.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
	Table     string `json:"table"`
}

func (d Database) Connection() configlibsql.Struct {
	return configlibsql.Struct{
		Driver:    d.Driver,
		File:      d.File,
		Url:       d.Url,
		AuthToken: d.AuthToken,
	}
}

type Query struct {
	// MinGDPBillions is the inclusive lower bound of the filter query.
	MinGDPBillions float64 `json:"min_gdp_billions"`
}

type Config struct {
	Source   Source   `json:"source"`
	Output   Output   `json:"output"`
	Database Database `json:"database"`
	Query    Query    `json:"query"`
	// SortByGDP sorts records by GDP (descending) before they are saved,
	// otherwise the source page order is kept.
	SortByGDP bool             `json:"sort_by_gdp"`
	Telemetry telemetry.Config `json:"telemetry"`
}

// Defaults is the configuration used when no config file is present.
func Defaults() Config {
	return Config{
		Source: Source{
			URL:            DefaultURL,
			TimeoutSeconds: DefaultTimeout,
			TableIndex:     2,
			NameColumn:     0,
			GDPColumn:      2,
			Placeholder:    "—",
			UserAgent:      "gdp-etl/1.0 (+https://github.com)",
		},
		Output: Output{
			CSV:      DefaultCSV,
			CSVIndex: true,
			Log:      DefaultLog,
		},
		Database: Database{
			Driver: configlibsql.DriverSqlite,
			File:   DefaultDBFile,
			Table:  DefaultTable,
		},
		Query: Query{
			MinGDPBillions: DefaultMinGDP,
		},
	}
}

// Load reads the config file at path (and its .local override) on top of
// Defaults and applies environment overrides. A missing
// config file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "err", err)
	}

	cfg, err := configutil.ReadConfig(path, Defaults())
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		cfg = Defaults()
	} else if err != nil {
		return Config{}, err
	}

	if url, ok := os.LookupEnv(EnvDatabaseURL); ok && url != "" {
		cfg.Database.Url = url
	}
	if token, ok := os.LookupEnv(EnvDatabaseAuthToken); ok && token != "" {
		cfg.Database.AuthToken = token
	}

	return cfg, nil
}
