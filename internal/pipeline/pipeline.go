package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gdp-etl/internal/chrono"
	"gdp-etl/internal/config"
	"gdp-etl/internal/extract"
	"gdp-etl/internal/gdp"
	"gdp-etl/internal/progress"
	"gdp-etl/internal/storage"
	"gdp-etl/internal/telemetry"
	"gdp-etl/internal/transform"
	"gdp-etl/lib/restyutil"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("gdp-etl.internal.pipeline")
	meter  = otel.Meter("gdp-etl.internal.pipeline")
)

const report_pipeline_close = "pipeline.close"

// Extractor fetches the raw rows of the GDP table.
type Extractor interface {
	Extract(ctx context.Context, url string) ([]gdp.RawRecord, error)
}

type Options struct {
	Config config.Config
	// Telemetry defaults to the default slog logger tagged with the run id.
	Telemetry telemetry.API
	// Time defaults to the system clock.
	Time chrono.TimeAPI
	// Log defaults to a FileSink at Config.Output.Log.
	Log progress.Sink
	// Out receives the query result, it defaults to stdout.
	Out io.Writer
	// Extractor defaults to an extract.Client built from Config.Source.
	Extractor Extractor
	// HttpOutput, if set, receives a dump of every HTTP exchange of the
	// default extractor.
	HttpOutput restyutil.InstrumentOutput
}

// Result describes how far a run got and what it produced.
type Result struct {
	RunID   string
	State   State
	Records []gdp.Record
	Query   storage.QueryResult
}

// Pipeline runs the extract, transform, load and query stages once per call
// to Run, a new Pipeline should be created for every run.
type Pipeline struct {
	RunID string

	cfg       config.Config
	tel       telemetry.API
	logger    progress.Logger
	out       io.Writer
	extractor Extractor
	records   metric.Int64Counter
}

func New(opts Options) (Pipeline, error) {
	runID, err := random.String(8)
	if err != nil {
		return Pipeline{}, fmt.Errorf("generate run id: %w", err)
	}

	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{Logger: slog.Default().With("run_id", runID)}
	}
	clock := opts.Time
	if clock == nil {
		clock = chrono.NewStandardTime()
	}
	sink := opts.Log
	if sink == nil {
		sink = progress.FileSink{Path: opts.Config.Output.Log}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.NewClient(extract.ClientOptions{
			Timeout:          opts.Config.Source.Timeout(),
			UserAgent:        opts.Config.Source.UserAgent,
			Locator:          extract.LocatorFromConfig(opts.Config.Source),
			CloudflareBypass: opts.Config.Source.CloudflareBypass,
			Output:           opts.HttpOutput,
		}, telemetry.NewScopedAPI("extract", tel))
	}

	records, err := meter.Int64Counter(
		"gdp_etl.records",
		metric.WithDescription("Records produced by a pipeline stage."),
	)
	if err != nil {
		return Pipeline{}, err
	}

	return Pipeline{
		RunID:     runID,
		cfg:       opts.Config,
		tel:       tel,
		logger:    progress.NewLogger(sink, clock),
		out:       out,
		extractor: extractor,
		records:   records,
	}, nil
}

func (p Pipeline) count(ctx context.Context, state State, n int) {
	p.tel.ReportCount(fmt.Sprintf("pipeline.%s", strings.ToLower(string(state))), int64(n))
	p.records.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("stage", string(state)),
		attribute.String("run_id", p.RunID),
	))
}

// Records extracts and transforms the source table without writing anything.
func (p Pipeline) Records(ctx context.Context) ([]gdp.Record, error) {
	raws, err := p.extractor.Extract(ctx, p.cfg.Source.URL)
	if err != nil {
		return nil, err
	}
	p.count(ctx, StateExtracted, len(raws))
	return p.transform(ctx, raws)
}

func (p Pipeline) transform(ctx context.Context, raws []gdp.RawRecord) ([]gdp.Record, error) {
	records, err := transform.Transform(raws)
	if err != nil {
		return nil, err
	}
	if p.cfg.SortByGDP {
		transform.SortByGDP(records)
	}
	p.count(ctx, StateTransformed, len(records))
	return records, nil
}

// Query runs the filter query against the table loaded by a previous run and
// prints the result.
func (p Pipeline) Query(ctx context.Context) (storage.QueryResult, error) {
	table := p.cfg.Database.Table
	if err := storage.ValidateTable(table); err != nil {
		return storage.QueryResult{}, err
	}

	store, err := storage.Open(ctx, p.cfg.Database, p.tel)
	if err != nil {
		return storage.QueryResult{}, err
	}
	defer p.close(store)

	return p.query(ctx, store)
}

func (p Pipeline) query(ctx context.Context, store storage.Store) (storage.QueryResult, error) {
	statement := storage.FilterStatement(p.cfg.Database.Table, p.cfg.Query.MinGDPBillions)
	result, err := store.RunQuery(ctx, statement)
	if err != nil {
		return storage.QueryResult{}, err
	}
	PrintQuery(p.out, statement, result)
	return result, nil
}

func (p Pipeline) close(store storage.Store) {
	if err := store.Close(); err != nil {
		p.tel.ReportWarning(report_pipeline_close, err)
	}
}

// Run executes every stage in order, writing a milestone line to the log
// after each one. The first failure stops the run and is returned as a
// *StageError, the database connection is closed on every path.
func (p Pipeline) Run(ctx context.Context) (result Result, err error) {
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("run_id", p.RunID),
	))
	defer span.End()

	result = Result{RunID: p.RunID, State: StateInit}
	defer func() {
		span.SetAttributes(attribute.String("state", string(result.State)))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			err = &StageError{State: result.State, Err: err}
		}
	}()

	advance := func(state State, message string) error {
		result.State = state
		slog.Debug("stage complete", "run_id", p.RunID, "state", state)
		return p.logger.Log(message)
	}

	if err = p.logger.Log(MsgPreliminaries); err != nil {
		return result, err
	}

	raws, err := p.extractor.Extract(ctx, p.cfg.Source.URL)
	if err != nil {
		return result, err
	}
	p.count(ctx, StateExtracted, len(raws))
	if err = advance(StateExtracted, MsgExtracted); err != nil {
		return result, err
	}

	records, err := p.transform(ctx, raws)
	if err != nil {
		return result, err
	}
	result.Records = records
	if err = advance(StateTransformed, MsgTransformed); err != nil {
		return result, err
	}

	err = storage.WriteCSV(p.cfg.Output.CSV, records, p.cfg.Output.CSVIndex)
	if err != nil {
		return result, err
	}
	if err = advance(StateCSVSaved, MsgCSVSaved); err != nil {
		return result, err
	}

	table := p.cfg.Database.Table
	if err = storage.ValidateTable(table); err != nil {
		return result, err
	}
	store, err := storage.Open(ctx, p.cfg.Database, p.tel)
	if err != nil {
		return result, err
	}
	defer p.close(store)
	if err = advance(StateDBConnected, MsgDBConnected); err != nil {
		return result, err
	}

	err = store.ReplaceTable(ctx, table, records)
	if err != nil {
		return result, err
	}
	p.count(ctx, StateDBLoaded, len(records))
	if err = advance(StateDBLoaded, MsgDBLoaded); err != nil {
		return result, err
	}

	result.Query, err = p.query(ctx, store)
	if err != nil {
		return result, err
	}
	result.State = StateQueried
	p.count(ctx, StateQueried, len(result.Query.Rows))

	if err = advance(StateDone, MsgComplete); err != nil {
		return result, err
	}
	return result, nil
}
