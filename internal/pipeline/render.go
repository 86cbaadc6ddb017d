package pipeline

import (
	"fmt"
	"io"

	"gdp-etl/internal/gdp"
	"gdp-etl/internal/storage"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// PrintQuery prints the statement followed by its result set, every row is
// prefixed with its 0-based index.
func PrintQuery(out io.Writer, statement string, result storage.QueryResult) {
	fmt.Fprintln(out, statement)

	t := newTable(out)
	header := table.Row{""}
	for _, col := range result.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)
	for i, row := range result.Rows {
		t.AppendRow(append(table.Row{i}, row...))
	}
	t.Render()
}

func PrintRecords(out io.Writer, records []gdp.Record) {
	t := newTable(out)
	t.AppendHeader(table.Row{"", gdp.ColumnCountry, gdp.ColumnGDPBillions})
	for i, r := range records {
		t.AppendRow(table.Row{i, r.Country, storage.FormatFloat(r.GDPBillions)})
	}
	t.Render()
}
