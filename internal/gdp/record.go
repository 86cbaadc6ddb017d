package gdp

// column names as they appear in the csv header and the database table
const (
	ColumnCountry     = "Country"
	ColumnGDPMillions = "GDP_USD_millions"
	ColumnGDPBillions = "GDP_USD_billions"
)

// RawRecord is a row as it was scraped, the GDP figure is still the source
// text in millions of USD (thousands separators included).
type RawRecord struct {
	Country     string
	GDPMillions string
}

// Record is a row after unit conversion, GDPBillions is rounded to 2 decimals.
type Record struct {
	Country     string
	GDPBillions float64
}
