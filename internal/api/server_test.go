package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/timecsv/internal/clockify"
	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pbaille/timecsv/internal/duration"
	"github.com/pbaille/timecsv/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	rep      *report.Report
	err      error
	gotKey   string
	gotMonth time.Time
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey string) (*report.Report, error) {
	f.gotKey = apiKey
	return f.rep, f.err
}

func (f *fakeGenerator) GenerateForMonth(_ context.Context, apiKey string, month time.Time) (*report.Report, error) {
	f.gotKey = apiKey
	f.gotMonth = month
	return f.rep, f.err
}

type fakeRuns struct {
	runs     []domain.ReportRun
	gotLimit int
}

func (f *fakeRuns) ListRuns(_ context.Context, limit int) ([]domain.ReportRun, error) {
	f.gotLimit = limit
	return f.runs, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateCsv(t *testing.T) {
	gen := &fakeGenerator{rep: &report.Report{Base64: "RGVzY3JpcHRpb24="}}
	h := New(gen, nil, "", nil).Handler()

	rec := do(t, h, http.MethodPost, "/generateCsv", `{"apiKey":"secret"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "RGVzY3JpcHRpb24=", decodeBody(t, rec)["result"])
	assert.Equal(t, "secret", gen.gotKey)
	assert.True(t, gen.gotMonth.IsZero())
}

func TestGenerateCsv_Month(t *testing.T) {
	gen := &fakeGenerator{rep: &report.Report{Base64: "eA=="}}
	h := New(gen, nil, "", nil).Handler()

	rec := do(t, h, http.MethodPost, "/generateCsv", `{"apiKey":"k","month":"2024-02"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, gen.gotMonth.Year())
	assert.Equal(t, time.February, gen.gotMonth.Month())
}

func TestGenerateCsv_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"apiKey":`},
		{"missing key", `{}`},
		{"blank key", `{"apiKey":"  "}`},
		{"bad month", `{"apiKey":"k","month":"Feb"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			rec := do(t, New(gen, nil, "", nil).Handler(), http.MethodPost, "/generateCsv", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
			assert.Empty(t, gen.gotKey)
		})
	}
}

func TestGenerateCsv_EmptyResult(t *testing.T) {
	gen := &fakeGenerator{rep: &report.Report{}}
	rec := do(t, New(gen, nil, "", nil).Handler(), http.MethodPost, "/generateCsv", `{"apiKey":"k"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate CSV", decodeBody(t, rec)["error"])
}

func TestGenerateCsv_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", fmt.Errorf("get user info: %w", &clockify.APIError{StatusCode: 401}), http.StatusUnauthorized},
		{"unavailable", fmt.Errorf("get time entries: %w", clockify.ErrUnavailable), http.StatusBadGateway},
		{"malformed payload", clockify.ErrMalformedResponse, http.StatusBadGateway},
		{"malformed duration", fmt.Errorf("aggregate entries: %w", duration.ErrMalformed), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.err}
			rec := do(t, New(gen, nil, "", nil).Handler(), http.MethodPost, "/generateCsv", `{"apiKey":"k"}`)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestGenerateCsv_InternalErrorHidesDetails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("secret internals")}
	rec := do(t, New(gen, nil, "", nil).Handler(), http.MethodPost, "/generateCsv", `{"apiKey":"k"}`)

	assert.NotContains(t, rec.Body.String(), "secret internals")
}

func TestGenerateCsv_MethodNotAllowed(t *testing.T) {
	rec := do(t, New(&fakeGenerator{}, nil, "", nil).Handler(), http.MethodGet, "/generateCsv", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListRuns(t *testing.T) {
	runs := &fakeRuns{runs: []domain.ReportRun{{ID: "r1", Month: "2024-01", Status: domain.RunSucceeded}}}
	h := New(&fakeGenerator{}, runs, "", nil).Handler()

	rec := do(t, h, http.MethodGet, "/runs?limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.gotLimit)
	body := decodeBody(t, rec)
	list, ok := body["runs"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].(map[string]any)["id"])
}

func TestListRuns_Disabled(t *testing.T) {
	rec := do(t, New(&fakeGenerator{}, nil, "", nil).Handler(), http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	h := New(&fakeGenerator{}, nil, "", nil).Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodOptions, "/generateCsv", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPassthrough(t *testing.T) {
	h := New(&fakeGenerator{}, nil, "", nil).Handler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeGenerator{}, nil, "127.0.0.1:0", nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
