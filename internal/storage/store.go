package storage

import (
	"context"
	"database/sql"
	"fmt"

	"gdp-etl/internal/config"
	"gdp-etl/internal/gdp"
	"gdp-etl/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("gdp-etl.internal.storage")

const (
	report_store_open          = "store.open"
	report_store_replace_table = "store.replace-table"
	report_store_run_query     = "store.run-query"
)

// Store is the relational sink, it holds a single connection.
type Store struct {
	db      *sql.DB
	dialect dialect
	tel     telemetry.API
}

func Open(ctx context.Context, cfg config.Database, tel telemetry.API) (Store, error) {
	conn := cfg.Connection()
	db, err := conn.OpenDB(ctx)
	if err != nil {
		tel.ReportBroken(report_store_open, err, conn.DriverName())
		return Store{}, fmt.Errorf("%w: open %s database: %w", gdp.ErrStorage, conn.DriverName(), err)
	}
	return NewStore(db, conn.DriverName(), tel), nil
}

// NewStore wraps an open database, driver selects the sql dialect.
func NewStore(db *sql.DB, driver string, tel telemetry.API) Store {
	return Store{
		db:      db,
		dialect: dialectFor(driver),
		tel:     tel,
	}
}

func (s Store) DB() *sql.DB {
	return s.db
}

func (s Store) Close() error {
	return s.db.Close()
}

// ReplaceTable drops table, recreates it and inserts records in order. It
// all happens in one transaction, so on failure the previous table is kept.
func (s Store) ReplaceTable(ctx context.Context, table string, records []gdp.Record) error {
	ctx, span := tracer.Start(ctx, "ReplaceTable")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", table),
		attribute.Int("records", len(records)),
	)

	err := ValidateTable(table)
	if err != nil {
		span.SetStatus(codes.Error, "invalid table")
		s.tel.ReportBroken(report_store_replace_table, err, table)
		return err
	}

	err = s.replaceTable(ctx, table, records)
	if err != nil {
		span.SetStatus(codes.Error, "replace failed")
		s.tel.ReportBroken(report_store_replace_table, err, table)
		return fmt.Errorf("%w: replace table %s: %w", gdp.ErrStorage, table, err)
	}
	return nil
}

func (s Store) replaceTable(ctx context.Context, table string, records []gdp.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, dropTable(table))
	if err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.dialect.createTable(table))
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.insert(table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err = stmt.ExecContext(ctx, r.Country, r.GDPBillions)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}
