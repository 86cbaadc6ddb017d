package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gdp-etl/internal/gdp"
)

// FormatFloat renders a value in its shortest round-trip form, ex. 26854.6
// rather than 26854.60.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV creates (or truncates) the file at path and writes every record to
// it. With withIndex the first column holds the 0-based row index under an
// empty header. The write is not atomic, a failure can leave a partial file.
func WriteCSV(path string, records []gdp.Record, withIndex bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: csv: create output dir: %w", gdp.ErrStorage, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: csv: create file %q: %w", gdp.ErrStorage, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{gdp.ColumnCountry, gdp.ColumnGDPBillions}
	if withIndex {
		header = append([]string{""}, header...)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: csv: write header: %w", gdp.ErrStorage, err)
	}

	for i, r := range records {
		row := []string{r.Country, FormatFloat(r.GDPBillions)}
		if withIndex {
			row = append([]string{strconv.Itoa(i)}, row...)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: csv: write row %d: %w", gdp.ErrStorage, i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: csv: flush: %w", gdp.ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: csv: close: %w", gdp.ErrStorage, err)
	}
	return nil
}
