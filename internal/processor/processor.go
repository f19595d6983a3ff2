package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"cendeu-features-go/internal/aggregator"
	"cendeu-features-go/internal/features"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/metrics"
	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/types"
	"cendeu-features-go/internal/window"
)

var ErrMissingCUIT = errors.New("missing cuit")

// Source is the data-fetch collaborator that returns a client's raw debt lines.
type Source interface {
	FetchDebts(ctx context.Context, cuit string) ([]types.RawDebt, error)
}

// Report is the outcome of aggregating one batch of raw debts.
type Report struct {
	Result      features.Result    `json:"data"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

// Aggregate normalizes raw, resolves the windows against now and assembles
// the feature map. It has no side effects; the only error it returns is a
// *window.ConfigurationError.
func Aggregate(raw []types.RawDebt, now time.Time, cfg window.Config) (Report, error) {
	set, err := window.Compute(now, cfg)
	if err != nil {
		return Report{}, err
	}
	records, parseErrs := normalizer.Normalize(raw)
	return Report{
		Result:      features.Assemble(aggregator.Aggregate(records, set)),
		Diagnostics: normalizer.Diagnostics(parseErrs),
	}, nil
}

// LookupResult is returned by the lookup endpoint. RawData and ResponseTimeMs
// are only set in verbose mode; a zero response time is still reported there.
type LookupResult struct {
	LookupID       string             `json:"lookup_id"`
	CUIT           string             `json:"cuit"`
	Data           features.Result    `json:"data"`
	Diagnostics    []types.Diagnostic `json:"diagnostics,omitempty"`
	RawData        []types.RawDebt    `json:"raw_data,omitempty"`
	ResponseTimeMs *int64             `json:"response_time_ms,omitempty"`
}

type Processor struct {
	source  Source
	windows window.Config
	now     func() time.Time
}

// New validates the window config once so a bad deployment fails at startup.
func New(source Source, windows window.Config) (*Processor, error) {
	if err := windows.Validate(); err != nil {
		return nil, err
	}
	return &Processor{source: source, windows: windows, now: time.Now}, nil
}

// WithClock overrides the processing date source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

func (p *Processor) Windows() window.Config { return p.windows }

// Now returns the processing date the processor would use.
func (p *Processor) Now() time.Time { return p.now() }

// Lookup fetches the client's debts and reduces them to features.
func (p *Processor) Lookup(ctx context.Context, cuit string, verbose bool) (LookupResult, error) {
	cuit = strings.TrimSpace(cuit)
	res := LookupResult{LookupID: uuid.New().String(), CUIT: cuit}
	if cuit == "" {
		metrics.ObserveLookup(metrics.ResultError)
		return res, ErrMissingCUIT
	}
	log := logger.New().WithField("component", "processor").
		WithField("lookup_id", res.LookupID).
		WithField("cuit", cuit)

	// the clock is read once, outside the reduction
	now := p.now()

	start := time.Now()
	raw, err := p.source.FetchDebts(ctx, cuit)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveFetch(metrics.ResultError, elapsed)
		metrics.ObserveLookup(metrics.ResultError)
		log.WithError(err).Error("fetch debts failed")
		return res, fmt.Errorf("fetch debts: %w", err)
	}
	metrics.ObserveFetch(metrics.ResultSuccess, elapsed)

	report, err := Aggregate(raw, now, p.windows)
	if err != nil {
		metrics.ObserveLookup(metrics.ResultError)
		return res, err
	}
	for _, d := range report.Diagnostics {
		metrics.ObserveDropped(d.Field)
		log.WithField("index", d.Index).
			WithField("field", d.Field).
			WithField("value", d.Value).
			Warn("dropped debt record: " + d.Reason)
	}
	metrics.ObserveClient(report.Result.IsInCendeu)
	metrics.ObserveLookup(metrics.ResultSuccess)

	res.Data = report.Result
	res.Diagnostics = report.Diagnostics
	if verbose {
		res.RawData = raw
		ms := elapsed.Milliseconds()
		res.ResponseTimeMs = &ms
	}
	log.WithField("is_in_cendeu", res.Data.IsInCendeu).
		WithField("debts", len(raw)).
		WithField("duration_ms", elapsed.Milliseconds()).
		Info("lookup finished")
	return res, nil
}
