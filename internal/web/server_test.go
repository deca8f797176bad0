package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tagsheet/internal/classify"
	"tagsheet/internal/config"
	"tagsheet/internal/domain"
	"tagsheet/internal/storage/sqlite"
)

// fakeClassifier returns one canned row per keyword without calling any LLM.
type fakeClassifier struct {
	lastRules     string
	lastBatchSize int
}

func (f *fakeClassifier) Classify(ctx context.Context, req *domain.ClassificationRequest, rules string, batchSize int, progress classify.ProgressFunc) classify.Result {
	f.lastRules = rules
	f.lastBatchSize = batchSize
	res := classify.Result{Headers: classify.Headers(req), TotalBatches: 1}
	for _, kw := range req.Keywords {
		row := []string{kw}
		for range req.Columns {
			row = append(row, "X")
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func newTestServer(t *testing.T) (*Server, *fakeClassifier, config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		UploadDir:        filepath.Join(dir, "uploads"),
		OutputDir:        filepath.Join(dir, "outputs"),
		MaxUploadBytes:   16 << 20,
		DefaultBatchSize: 200,
		LLMProvider:      "gemini",
	}
	for _, d := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	db, err := sqlite.InitDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fc := &fakeClassifier{}
	return NewServer(cfg, db, fc, nil, "default rules"), fc, cfg
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

const sampleCSV = "Keywords,Brands,Category,Intent\nrunning shoes,Acme,Footwear,\ntrail boots,,Apparel,\n"

func TestHandleHome(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "default rules") {
		t.Fatalf("home page should show the active rules")
	}
}

func TestHandleUploadRejectsUnsupportedExtension(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	body, contentType := multipartUpload(t, "keywords.txt", "whatever")
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "Unsupported file type") {
		t.Fatalf("expected rejection message, got: %s", rec.Body.String())
	}
	entries, _ := os.ReadDir(cfg.UploadDir)
	if len(entries) != 0 {
		t.Fatalf("rejected upload should not be persisted")
	}
}

func TestHandleUploadPreview(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	body, contentType := multipartUpload(t, "keywords.csv", sampleCSV)
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	if !strings.Contains(page, "Category") || !strings.Contains(page, "Intent") {
		t.Fatalf("preview should list output columns, got: %s", page)
	}
	if !strings.Contains(page, "Footwear") {
		t.Fatalf("preview should list discovered tags")
	}
	if !strings.Contains(page, "Acme") {
		t.Fatalf("preview should list brands")
	}

	entries, err := os.ReadDir(cfg.UploadDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one stored upload, got %d (%v)", len(entries), err)
	}
	if !strings.HasSuffix(entries[0].Name(), "_keywords.csv") {
		t.Fatalf("stored name = %q, want timestamp prefix", entries[0].Name())
	}
}

func TestHandleProcessFlow(t *testing.T) {
	srv, fc, cfg := newTestServer(t)

	uploadName := "20260101_120000_keywords.csv"
	uploadPath := filepath.Join(cfg.UploadDir, uploadName)
	if err := os.WriteFile(uploadPath, []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("writing upload fixture: %v", err)
	}

	form := url.Values{}
	form.Set("system_prompt", "custom rules")
	form.Set("batch_size", "50")
	form.Set("instruction_col_name_1", "Intent")
	form.Set("instruction_1", "Label buy or info")
	req := httptest.NewRequest("POST", "/process/"+uploadName, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if fc.lastRules != "custom rules" {
		t.Fatalf("rules = %q, want form override", fc.lastRules)
	}
	if fc.lastBatchSize != 50 {
		t.Fatalf("batch size = %d, want 50", fc.lastBatchSize)
	}

	// Upload consumed, output produced.
	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Fatalf("upload should be removed after processing")
	}
	outputs, err := os.ReadDir(cfg.OutputDir)
	if err != nil || len(outputs) != 1 {
		t.Fatalf("expected one output, got %d (%v)", len(outputs), err)
	}
	outName := outputs[0].Name()
	if !strings.HasPrefix(outName, "classified_20260101_120000_keywords_") || !strings.HasSuffix(outName, ".xlsx") {
		t.Fatalf("output name = %q", outName)
	}
	if !strings.Contains(rec.Body.String(), outName) {
		t.Fatalf("success page should link the output file")
	}

	jobs, err := sqlite.RecentJobs(srv.db, 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("expected one recorded job, got %d (%v)", len(jobs), err)
	}
	if jobs[0].InputFile != uploadName || jobs[0].Keywords != 2 {
		t.Fatalf("unexpected job record: %+v", jobs[0])
	}
}

func TestHandleProcessRejectsTraversal(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/process/..%2Fsecret.csv", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDownload(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	name := "classified_keywords_20260101_120000.xlsx"
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte("xlsx-bytes"), 0644); err != nil {
		t.Fatalf("writing output fixture: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/download/"+name, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxMIME {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") || !strings.Contains(got, name) {
		t.Fatalf("content disposition = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header = %q", got)
	}
	if rec.Body.String() != "xlsx-bytes" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestHandleDownloadMissing(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/download/nope.xlsx", nil))

	if !strings.Contains(rec.Body.String(), "not found or expired") {
		t.Fatalf("expected missing-file message, got: %s", rec.Body.String())
	}
}

func TestHandleJobsPage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if err := sqlite.InsertJob(srv.db, sqlite.Job{InputFile: "a.csv", OutputFile: "classified_a.xlsx", Keywords: 7, Columns: 2, Batches: 1, Provider: "gemini"}); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/jobs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "a.csv") {
		t.Fatalf("jobs page should list recorded jobs")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain.csv", "plain.csv"},
		{"my file.csv", "my_file.csv"},
		{"a/b\\c.csv", "a_b_c.csv"},
		{"..", "upload"},
		{"", "upload"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
