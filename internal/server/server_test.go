package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtfilter/internal/config"
	"github.com/cleared-dev/stmtfilter/internal/export"
	"github.com/cleared-dev/stmtfilter/internal/statement"
)

func newTestServer(maxUpload int64) http.Handler {
	svc := statement.FromConfig(config.Default(), zerolog.Nop())
	return New(svc, maxUpload, zerolog.Nop()).Handler()
}

func upload(t *testing.T, filename string, body []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/filter", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func statementCSV(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/statement.csv")
	require.NoError(t, err)
	return data
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestFilter_CSV(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(rec, upload(t, "statement.csv", statementCSV(t), map[string]string{
		"period": "6 months",
		"today":  "2024-01-10",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filtered_statement.csv"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.Equal(t, "2024-01-01,Card payment,,", lines[3])
}

func TestFilter_PDF(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(rec, upload(t, "statement.csv", statementCSV(t), map[string]string{
		"period": "1 year",
		"today":  "2024-01-10",
		"format": "PDF",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filtered_statement.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestFilter_JSON(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(rec, upload(t, "statement.csv", statementCSV(t), map[string]string{
		"period": "6 months",
		"today":  "2024-01-10",
		"format": "json",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp filterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2023-07-14", resp.From)
	assert.Equal(t, "2024-01-10", resp.To)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Transactions, 3)

	first := resp.Transactions[0]
	assert.Equal(t, "2023-09-30", first.Date)
	require.NotNil(t, first.Amount)
	assert.Equal(t, "25.99", *first.Amount)

	last := resp.Transactions[2]
	assert.Nil(t, last.Amount)
	assert.Nil(t, last.Balance)
}

func TestFilter_Errors(t *testing.T) {
	csv := statementCSV(t)
	tests := []struct {
		name     string
		filename string
		body     []byte
		fields   map[string]string
		status   int
	}{
		{"missing file", "", nil, map[string]string{"period": "6 months"}, http.StatusBadRequest},
		{"missing period", "statement.csv", csv, nil, http.StatusBadRequest},
		{"bad output format", "statement.csv", csv, map[string]string{"period": "6 months", "format": "xlsx"}, http.StatusBadRequest},
		{"bad today", "statement.csv", csv, map[string]string{"period": "6 months", "today": "tomorrow"}, http.StatusBadRequest},
		{"unsupported upload", "statement.xlsx", csv, map[string]string{"period": "6 months"}, http.StatusUnsupportedMediaType},
		{"no match", "statement.csv", csv, map[string]string{"period": "whenever"}, http.StatusUnprocessableEntity},
		{"schema", "statement.csv", []byte("a,b\n1,2\n"), map[string]string{"period": "6 months"}, http.StatusUnprocessableEntity},
		{"unreadable pdf", "statement.pdf", []byte("not a pdf"), map[string]string{"period": "6 months"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(1<<20).ServeHTTP(rec, upload(t, tt.filename, tt.body, tt.fields))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestFilter_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(64).ServeHTTP(rec, upload(t, "statement.csv", statementCSV(t), map[string]string{"period": "6 months"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFilter_NotMultipart(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader("period=6+months"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	newTestServer(1<<20).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filter", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, []any{"chase", "csv", "pdf"}, body["formats"])
}

func TestRequestID_Propagated(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	newTestServer(1<<20).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_LogsWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	h := RequestID(log)(Logger(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorMessage(t, rec))

	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
}
