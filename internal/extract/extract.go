package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gdp-etl/internal/gdp"
	"gdp-etl/internal/telemetry"
	"gdp-etl/lib/htmlutil"
	"gdp-etl/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("gdp-etl.internal.extract")

const (
	report_client_extract = "client.extract"
	report_parse_row      = "parse.row"
)

type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	Locator   Locator
	// CloudflareBypass wraps the transport with cloudflare-bp-go.
	CloudflareBypass bool
	// Output receives a dump of every HTTP exchange when it is not nil.
	Output restyutil.InstrumentOutput
}

// Client fetches the GDP page and turns its table into raw records.
type Client struct {
	http    *resty.Client
	tel     telemetry.API
	locator Locator
}

func NewClient(opts ClientOptions, tel telemetry.API) Client {
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	restyutil.InstrumentClient(client, tracer, tel, opts.Output)

	return Client{
		http:    client,
		tel:     tel,
		locator: opts.Locator,
	}
}

// Extract fetches url and returns the rows of the located table in document
// order. It does not retry.
func (c Client) Extract(ctx context.Context, url string) ([]gdp.RawRecord, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		c.tel.ReportBroken(report_client_extract, fmt.Errorf("fetch: %w", err), url)
		return nil, fmt.Errorf("%w: fetch %s: %w", gdp.ErrNetwork, url, err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		c.tel.ReportBroken(report_client_extract, "unexpected status", res.Status(), url)
		return nil, fmt.Errorf("%w: fetch %s: status %s", gdp.ErrNetwork, url, res.Status())
	}

	records, err := Parse(ctx, bytes.NewReader(res.Body()), c.locator, c.tel)
	if err != nil {
		span.SetStatus(codes.Error, "parse failed")
		c.tel.ReportBroken(report_client_extract, fmt.Errorf("parse: %w", err), url)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

// Parse reads an HTML document and extracts one record per country row of
// the table selected by loc.
//
// A row is a country row if it has td cells and its name cell holds a link.
// Country rows whose GDP cell contains the placeholder have no figure and are
// skipped.
func Parse(ctx context.Context, r io.Reader, loc Locator, tel telemetry.API) ([]gdp.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", gdp.ErrStructure, err)
	}

	body, err := loc.locateBody(doc)
	if err != nil {
		return nil, err
	}

	records := []gdp.RawRecord{}
	body.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return true
		}
		links := cells.Eq(loc.NameColumn).Find("a")
		if links.Length() == 0 {
			return true
		}
		if cells.Length() <= loc.GDPColumn {
			err = fmt.Errorf(
				"%w: row %d has %d cells, the gdp column is %d",
				gdp.ErrStructure, i, cells.Length(), loc.GDPColumn,
			)
			return false
		}

		gdpCell := cells.Eq(loc.GDPColumn)
		if loc.Placeholder != "" && strings.Contains(gdpCell.Text(), loc.Placeholder) {
			return true
		}

		name := ""
		for _, anchor := range htmlutil.GetAnchors(ctx, links) {
			if anchor.Name != "" {
				name = anchor.Name
				break
			}
		}
		if name == "" {
			tel.ReportWarning(report_parse_row, "linked name cell without text", i)
			return true
		}

		records = append(records, gdp.RawRecord{
			Country:     name,
			GDPMillions: htmlutil.CleanText(htmlutil.FirstText(gdpCell)),
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
