package storage

import (
	"context"
	"fmt"
	"strings"

	"gdp-etl/internal/gdp"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FilterStatement is the query run after loading, ex.
// "SELECT * from Countries_by_GDP WHERE GDP_USD_billions >= 100".
func FilterStatement(table string, minBillions float64) string {
	return fmt.Sprintf(
		"SELECT * from %s WHERE %s >= %s",
		table, gdp.ColumnGDPBillions, FormatFloat(minBillions),
	)
}

type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Records converts the result back into records, it requires a Country and a
// GDP_USD_billions column (matched case insensitively).
func (r QueryResult) Records() ([]gdp.Record, error) {
	countryIdx, gdpIdx := -1, -1
	for i, col := range r.Columns {
		switch {
		case strings.EqualFold(col, gdp.ColumnCountry):
			countryIdx = i
		case strings.EqualFold(col, gdp.ColumnGDPBillions):
			gdpIdx = i
		}
	}
	if countryIdx < 0 || gdpIdx < 0 {
		return nil, fmt.Errorf("%w: result has columns %v", gdp.ErrStorage, r.Columns)
	}

	records := make([]gdp.Record, 0, len(r.Rows))
	for i, row := range r.Rows {
		country, ok := row[countryIdx].(string)
		if !ok {
			return nil, fmt.Errorf("%w: row %d: country is %T", gdp.ErrStorage, i, row[countryIdx])
		}
		var billions float64
		switch v := row[gdpIdx].(type) {
		case float64:
			billions = v
		case int64:
			billions = float64(v)
		default:
			return nil, fmt.Errorf("%w: row %d: gdp is %T", gdp.ErrStorage, i, row[gdpIdx])
		}
		records = append(records, gdp.Record{Country: country, GDPBillions: billions})
	}
	return records, nil
}

// RunQuery runs a read-only statement and returns every row.
func (s Store) RunQuery(ctx context.Context, statement string) (QueryResult, error) {
	ctx, span := tracer.Start(ctx, "RunQuery")
	defer span.End()
	span.SetAttributes(attribute.String("statement", statement))

	result, err := s.runQuery(ctx, statement)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		s.tel.ReportBroken(report_store_run_query, err, statement)
		return QueryResult{}, fmt.Errorf("%w: query: %w", gdp.ErrStorage, err)
	}
	span.SetAttributes(attribute.Int("rows", len(result.Rows)))
	return result, nil
}

func (s Store) runQuery(ctx context.Context, statement string) (QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, err
	}

	result := QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		err = rows.Scan(ptrs...)
		if err != nil {
			return QueryResult{}, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	return result, rows.Err()
}
