package transform

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gdp-etl/internal/gdp"
)

// ToBillions converts a GDP figure in millions as it appears on the page
// ("23,315,081") to billions rounded half away from zero to 2 decimals.
func ToBillions(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	millions, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: gdp value %q: %w", gdp.ErrParse, raw, err)
	}
	return math.Round(millions/1000*100) / 100, nil
}

// Transform converts every raw record, keeping their order. The first value
// that does not parse fails the whole batch.
func Transform(raws []gdp.RawRecord) ([]gdp.Record, error) {
	records := make([]gdp.Record, 0, len(raws))
	for _, raw := range raws {
		billions, err := ToBillions(raw.GDPMillions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw.Country, err)
		}
		records = append(records, gdp.Record{
			Country:     raw.Country,
			GDPBillions: billions,
		})
	}
	return records, nil
}

// SortByGDP sorts records in place, largest economy first. Ties keep their
// original order.
func SortByGDP(records []gdp.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GDPBillions > records[j].GDPBillions
	})
}
