package configlibsql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	DriverSqlite   = "sqlite"
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
)

// Struct describes a database connection: a local sqlite file, a remote
// libsql server or a postgres server.
type Struct struct {
	Driver    string `json:"driver"`
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// DriverName returns the driver in use, an empty driver means sqlite.
func (config Struct) DriverName() string {
	if config.Driver == "" {
		return DriverSqlite
	}
	return config.Driver
}

// OpenDB opens the database and checks that it is reachable.
func (config Struct) OpenDB(ctx context.Context) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch config.DriverName() {
	case DriverSqlite:
		db, err = config.openSqlite()
	case DriverLibsql:
		db, err = config.openLibsql()
	case DriverPostgres:
		if config.Url == "" {
			return nil, fmt.Errorf("a postgres connection string was not specified")
		}
		db, err = sql.Open("postgres", config.Url)
	default:
		return nil, fmt.Errorf("unknown database driver %q", config.Driver)
	}
	if err != nil {
		return nil, err
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (config Struct) openSqlite() (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if dir := filepath.Dir(config.File); dir != "." {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (config Struct) openLibsql() (*sql.DB, error) {
	if config.Url == "" {
		return nil, fmt.Errorf("a libsql url was not specified")
	}
	dsn, err := url.Parse(config.Url)
	if err != nil {
		return nil, err
	}
	if config.AuthToken != "" {
		query := dsn.Query()
		query.Set("authToken", config.AuthToken)
		dsn.RawQuery = query.Encode()
	}

	db, err := sql.Open("libsql", dsn.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
