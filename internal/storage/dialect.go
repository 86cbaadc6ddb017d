package storage

import (
	"fmt"
	"regexp"

	"gdp-etl/internal/gdp"
	configlibsql "gdp-etl/lib/configutil/libsql"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable rejects table names that would need quoting, they are
// interpolated into statements.
func ValidateTable(table string) error {
	if !identifierRegex.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", gdp.ErrStorage, table)
	}
	return nil
}

type dialect struct {
	floatType   string
	placeholder func(n int) string
}

func questionMark(int) string {
	return "?"
}

func dollarN(n int) string {
	return fmt.Sprintf("$%d", n)
}

func dialectFor(driver string) dialect {
	if driver == configlibsql.DriverPostgres {
		return dialect{floatType: "DOUBLE PRECISION", placeholder: dollarN}
	}
	return dialect{floatType: "REAL", placeholder: questionMark}
}

func (d dialect) createTable(table string) string {
	return fmt.Sprintf(
		"CREATE TABLE %s (%s TEXT, %s %s)",
		table, gdp.ColumnCountry, gdp.ColumnGDPBillions, d.floatType,
	)
}

func (d dialect) insert(table string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		table, gdp.ColumnCountry, gdp.ColumnGDPBillions,
		d.placeholder(1), d.placeholder(2),
	)
}

func dropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
}
