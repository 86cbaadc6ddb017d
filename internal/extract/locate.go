package extract

import (
	"fmt"
	"strings"

	"gdp-etl/internal/config"
	"gdp-etl/internal/gdp"
	"gdp-etl/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// minimum Jaro-Winkler similarity for a caption to count as a match when it
// is not a plain substring
const captionSimilarity = 0.9

// Locator describes where the GDP table lives in the page and which cells of
// a row hold the name and the figure.
type Locator struct {
	// TableIndex is the 0-based position of the tbody among every tbody of
	// the page, in document order.
	TableIndex int
	// Caption, if set, selects the first table whose caption (or first row)
	// matches it, TableIndex is ignored.
	Caption     string
	NameColumn  int
	GDPColumn   int
	Placeholder string
}

func LocatorFromConfig(cfg config.Source) Locator {
	return Locator{
		TableIndex:  cfg.TableIndex,
		Caption:     cfg.Caption,
		NameColumn:  cfg.NameColumn,
		GDPColumn:   cfg.GDPColumn,
		Placeholder: cfg.Placeholder,
	}
}

func (l Locator) locateBody(doc *goquery.Document) (*goquery.Selection, error) {
	if l.Caption != "" {
		return l.locateByCaption(doc)
	}

	bodies := doc.Find("tbody")
	if l.TableIndex < 0 || bodies.Length() <= l.TableIndex {
		return nil, fmt.Errorf(
			"%w: expected at least %d table bodies, found %d",
			gdp.ErrStructure, l.TableIndex+1, bodies.Length(),
		)
	}
	return bodies.Eq(l.TableIndex), nil
}

func tableLabel(table *goquery.Selection) string {
	label := table.ChildrenFiltered("caption").Text()
	if strings.TrimSpace(label) != "" {
		return label
	}
	return table.Find("tr").First().Text()
}

func (l Locator) locateByCaption(doc *goquery.Document) (*goquery.Selection, error) {
	var body *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !textutil.MatchName(tableLabel(table), l.Caption, captionSimilarity) {
			return true
		}
		body = table.ChildrenFiltered("tbody").First()
		return false
	})

	if body == nil {
		return nil, fmt.Errorf("%w: no table captioned %q", gdp.ErrStructure, l.Caption)
	}
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: table captioned %q has no body", gdp.ErrStructure, l.Caption)
	}
	return body, nil
}
