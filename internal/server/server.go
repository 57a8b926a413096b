// Package server exposes the filtering pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/stmtfilter/internal/buildinfo"
	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/export"
	"github.com/cleared-dev/stmtfilter/internal/importer"
	"github.com/cleared-dev/stmtfilter/internal/logger"
	"github.com/cleared-dev/stmtfilter/internal/model"
	"github.com/cleared-dev/stmtfilter/internal/statement"
)

// Output formats accepted in the "format" form field.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// multipart parts beyond this size are spooled to disk by net/http
const maxMemory = 8 << 20

// Server handles statement uploads.
type Server struct {
	svc       *statement.Service
	maxUpload int64
	log       zerolog.Logger
}

// New creates a Server. maxUpload bounds the request body in bytes.
func New(svc *statement.Service, maxUpload int64, log zerolog.Logger) *Server {
	return &Server{svc: svc, maxUpload: maxUpload, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/filter", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.Filter(w, r)
	})
	mux.HandleFunc("/healthz", s.Health)

	var h http.Handler = mux
	h = Recovery(h)
	h = Logger(h)
	h = RequestID(s.log)(h)
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Starting HTTP server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"formats": s.svc.Formats(),
	})
}

// Filter handles POST /api/filter: a multipart form with the statement in "file",
// the lookback in "period", an optional output "format" and an optional "today" that
// replaces the current date as the end of the range.
func (s *Server) Filter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	tooLarge := fmt.Sprintf("Upload exceeds %d bytes", s.maxUpload)
	if r.ContentLength > s.maxUpload {
		WriteError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		WriteError(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	period := strings.TrimSpace(r.FormValue("period"))
	if period == "" {
		WriteError(w, http.StatusBadRequest, "period is required")
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.FormValue("format")))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF && format != FormatJSON {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("format must be %s, %s or %s", FormatCSV, FormatPDF, FormatJSON))
		return
	}

	var today date.Date
	if v := strings.TrimSpace(r.FormValue("today")); v != "" {
		today, err = date.Parse(date.Format, v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "today must be a YYYY-MM-DD date")
			return
		}
	}

	res, err := s.svc.Run(statement.Request{
		Filename: hdr.Filename,
		Document: file,
		Query:    period,
		Today:    today,
	})
	switch {
	case err == nil:
	case errors.Is(err, importer.ErrUnsupportedFormat):
		WriteError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case statement.IsUserError(err):
		log.Warn().Err(err).Str("file", hdr.Filename).Msg("Rejected statement")
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		log.Error().Err(err).Str("file", hdr.Filename).Msg("Failed to filter statement")
		WriteError(w, http.StatusInternalServerError, "Failed to filter statement")
		return
	}

	switch format {
	case FormatJSON:
		WriteJSON(w, http.StatusOK, newFilterResponse(res))
	case FormatPDF:
		s.attachment(w, log, res.PDF, "application/pdf", export.PDFFilename)
	default:
		s.attachment(w, log, res.CSV, "text/csv; charset=utf-8", export.CSVFilename)
	}
}

func (s *Server) attachment(w http.ResponseWriter, log zerolog.Logger, render func() ([]byte, error), contentType, filename string) {
	body, err := render()
	if err != nil {
		log.Error().Err(err).Str("output", filename).Msg("Failed to render output")
		WriteError(w, http.StatusInternalServerError, "Failed to render output")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type transactionJSON struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      *string `json:"amount"`
	Balance     *string `json:"balance"`
}

type filterResponse struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	Total        int               `json:"total"`
	Count        int               `json:"count"`
	Transactions []transactionJSON `json:"transactions"`
}

func newFilterResponse(res *statement.Result) filterResponse {
	resp := filterResponse{
		From:         res.Range.From.String(),
		To:           res.Range.To.String(),
		Total:        len(res.All),
		Count:        len(res.Filtered),
		Transactions: make([]transactionJSON, 0, len(res.Filtered)),
	}
	for _, t := range res.Filtered {
		resp.Transactions = append(resp.Transactions, toJSON(t))
	}
	return resp
}

func toJSON(t model.Transaction) transactionJSON {
	out := transactionJSON{Date: t.Date.String(), Description: t.Description}
	if t.Amount.Valid {
		v := t.Amount.Decimal.String()
		out.Amount = &v
	}
	if t.Balance.Valid {
		v := t.Balance.Decimal.String()
		out.Balance = &v
	}
	return out
}
