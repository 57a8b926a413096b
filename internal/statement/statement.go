// Package statement runs the filtering pipeline: pick a parser for the upload,
// extract its transactions, resolve the lookback query, and keep the transactions
// that fall inside the resulting range.
package statement

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/stmtfilter/internal/config"
	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/export"
	"github.com/cleared-dev/stmtfilter/internal/filter"
	"github.com/cleared-dev/stmtfilter/internal/importer"
	"github.com/cleared-dev/stmtfilter/internal/lookback"
	"github.com/cleared-dev/stmtfilter/internal/model"
)

// Request is one filtering job.
type Request struct {
	Filename string    // used only to choose the parser
	Document io.Reader // the uploaded statement
	Query    string    // lookback, e.g. "6 months"
	Today    date.Date // end of the range; zero means the current local date
}

// Result holds the extracted and filtered transactions.
type Result struct {
	Range    date.Range
	All      []model.Transaction
	Filtered []model.Transaction

	renderer *export.PDFRenderer
}

// CSV returns the filtered transactions as filtered_statement.csv content.
func (r *Result) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, r.Filtered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF returns the filtered transactions as filtered_statement.pdf content.
func (r *Result) PDF() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.renderer.Render(&buf, r.Filtered, r.Range); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Service holds the parsers and report layout. It keeps no per-request state and is
// safe for concurrent use.
type Service struct {
	parsers  *importer.Registry
	renderer *export.PDFRenderer
	log      zerolog.Logger
}

// NewService creates a Service.
func NewService(parsers *importer.Registry, layout export.Layout, log zerolog.Logger) *Service {
	return &Service{
		parsers:  parsers,
		renderer: export.NewPDFRenderer(layout),
		log:      log,
	}
}

// FromConfig creates a Service with the built-in parsers configured by cfg.
func FromConfig(cfg *config.Config, log zerolog.Logger) *Service {
	opts := importer.Options{DateLayouts: cfg.Extract.DateLayouts, Log: log}
	return NewService(importer.DefaultRegistry(opts), cfg.Layout(), log)
}

// Formats lists the accepted upload formats.
func (s *Service) Formats() []string { return s.parsers.Formats() }

// Run executes req. The first failing stage ends the run.
func (s *Service) Run(req Request) (*Result, error) {
	p, err := s.parsers.ForFile(req.Filename)
	if err != nil {
		return nil, err
	}

	all, err := p.Parse(req.Document)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", req.Filename, err)
	}

	lb, err := lookback.Parse(req.Query)
	if err != nil {
		return nil, fmt.Errorf("reading period: %w", err)
	}

	today := req.Today
	if today.IsZero() {
		today = date.Today()
	}
	r := lb.Range(today)
	filtered := filter.Apply(all, r)

	s.log.Info().
		Str("file", req.Filename).
		Str("format", p.Format()).
		Str("period", lb.String()).
		Stringer("range", r).
		Int("extracted", len(all)).
		Int("kept", len(filtered)).
		Msg("Filtered statement")

	return &Result{
		Range:    r,
		All:      all,
		Filtered: filtered,
		renderer: s.renderer,
	}, nil
}

// IsUserError reports whether err was caused by the upload or the query rather than
// by the program or its environment.
func IsUserError(err error) bool {
	return importer.IsUserError(err) ||
		errors.Is(err, lookback.ErrNoMatch) ||
		errors.Is(err, lookback.ErrOutOfRange)
}
