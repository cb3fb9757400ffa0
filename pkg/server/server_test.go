package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/categorize"
	"github.com/spendlens/spendlens/pkg/ingest"
	"github.com/spendlens/spendlens/pkg/parser"
	"github.com/spendlens/spendlens/pkg/store"
)

func newTestServer() (*Server, *store.Memory) {
	logger := log.Default()
	st := store.NewMemory(nil)
	ingestor := ingest.New(
		parser.New(logger),
		categorize.New(categorize.DefaultRules(), logger),
		nil,
		st,
		logger,
	)
	return New(logger, ingestor, st), st
}

func multipartUpload(t *testing.T, source, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("source", source); err != nil {
		t.Fatal(err)
	}
	part, err := w.CreateFormFile("statement", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, w.FormDataContentType()
}

func TestHandleIngest(t *testing.T) {
	srv, _ := newTestServer()

	content := `Date,Description,Amount
07/28/2024,WALMART SUPERCENTER,-45.00
07/28/2024,SHELL GAS STATION,-30.00`
	body, contentType := multipartUpload(t, "chase-visa", "july.csv", content)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad json response: %v", err)
	}
	if result.Processed != 2 || result.Duplicates != 0 {
		t.Errorf("result = %+v, want 2 processed, 0 duplicates", result)
	}
	if result.Status != store.StatusCompleted {
		t.Errorf("status = %q, want %q", result.Status, store.StatusCompleted)
	}
}

func TestHandleIngestRejectsMissingSource(t *testing.T) {
	srv, _ := newTestServer()

	body, contentType := multipartUpload(t, "", "july.csv", "Date,Description,Amount\n")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngestUnsupportedType(t *testing.T) {
	srv, _ := newTestServer()

	body, contentType := multipartUpload(t, "chase-visa", "notes.bin", "plain prose with no structure")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestHandleIngestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/ingest", nil)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "groceries") {
		t.Errorf("response missing seeded category: %s", rec.Body.String())
	}
}

func TestHandleBatch(t *testing.T) {
	srv, _ := newTestServer()

	content := "Date,Description,Amount\n07/28/2024,WALMART,-45.00\n"
	body, contentType := multipartUpload(t, "chase-visa", "july.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rec.Code)
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/batches/"+result.BatchID, nil)
	rec = httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/batches/no-such-batch", nil)
	rec = httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown batch status = %d, want 404", rec.Code)
	}
}

func TestHandleExport(t *testing.T) {
	srv, _ := newTestServer()

	content := "Date,Description,Amount\n07/28/2024,WALMART SUPERCENTER,-45.00\n"
	body, contentType := multipartUpload(t, "chase-visa", "july.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/exports/chase-visa.csv", nil)
	rec = httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("content type = %q, want text/csv", got)
	}
	out := rec.Body.String()
	if !strings.HasPrefix(out, "Date,Description,Merchant,Amount,Category") {
		t.Errorf("export missing header: %q", out)
	}
	if !strings.Contains(out, "WALMART SUPERCENTER") {
		t.Errorf("export missing transaction: %q", out)
	}
}
