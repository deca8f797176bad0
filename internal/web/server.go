// Package web is the upload / preview / process / download surface around the
// classification core. It owns file naming and lifecycle; the core only sees
// file paths and structured requests.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tagsheet/internal/classify"
	"tagsheet/internal/config"
	"tagsheet/internal/domain"
	"tagsheet/internal/notify"
	"tagsheet/internal/storage/sqlite"
	"tagsheet/internal/tabular"
	"tagsheet/internal/xlsxout"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Classifier is what the handlers need from the engine; tests substitute a
// canned implementation.
type Classifier interface {
	Classify(ctx context.Context, req *domain.ClassificationRequest, rules string, batchSize int, progress classify.ProgressFunc) classify.Result
}

type Server struct {
	cfg      config.Config
	db       *sql.DB
	engine   Classifier
	notifier *notify.Notifier
	rules    string
}

func NewServer(cfg config.Config, db *sql.DB, engine Classifier, notifier *notify.Notifier, rules string) *Server {
	return &Server{cfg: cfg, db: db, engine: engine, notifier: notifier, rules: rules}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /{$}", s.handleUpload)
	mux.HandleFunc("POST /process/{file}", s.handleProcess)
	mux.HandleFunc("GET /download/{file}", s.handleDownload)
	mux.HandleFunc("GET /jobs", s.handleJobs)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, "")
}

func (s *Server) renderHome(w http.ResponseWriter, errMsg string) {
	render(w, homeTmpl, homeView{Error: errMsg, SystemPrompt: s.rules})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.renderHome(w, fmt.Sprintf("Upload failed (max size %d MB)", s.cfg.MaxUploadBytes>>20))
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.renderHome(w, "No file selected")
		return
	}
	defer file.Close()

	if !tabular.SupportedExtension(hdr.Filename) {
		s.renderHome(w, "Unsupported file type. Please upload CSV or XLSX files.")
		return
	}

	name := time.Now().Format("20060102_150405") + "_" + sanitizeFilename(filepath.Base(hdr.Filename))
	path := filepath.Join(s.cfg.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		log.Printf("web upload create %s: %v", path, err)
		s.renderHome(w, "Error saving uploaded file")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		s.renderHome(w, "Error saving uploaded file")
		return
	}
	dst.Close()

	req, err := tabular.Load(path)
	if err != nil {
		os.Remove(path)
		s.renderHome(w, fmt.Sprintf("Error processing file: %v", err))
		return
	}

	systemPrompt := r.FormValue("system_prompt")
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = s.rules
	}

	view := previewView{
		Filename:     name,
		Original:     hdr.Filename,
		KeywordCount: len(req.Keywords),
		Brands:       strings.Join(req.Brands, ", "),
		SystemPrompt: systemPrompt,
		BatchSize:    s.cfg.DefaultBatchSize,
	}
	for i, c := range req.Columns {
		cv := columnView{Index: i, Name: c.Name}
		if c.Kind == domain.ColumnTagged {
			cv.Tags = strings.Join(c.Tags, ", ")
		} else {
			cv.NeedsInstructions = true
		}
		view.Columns = append(view.Columns, cv)
	}
	render(w, previewTmpl, view)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	name, ok := safeFilename(r.PathValue("file"))
	if !ok {
		http.Error(w, "bad filename", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.cfg.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		s.renderHome(w, "File not found")
		return
	}

	req, err := tabular.Load(path)
	if err != nil {
		s.renderHome(w, fmt.Sprintf("Error processing file: %v", err))
		return
	}

	// Instruction text typed on the preview page for instruction-only
	// columns, keyed by column position.
	for i, col := range req.Columns {
		providedName := r.FormValue(fmt.Sprintf("instruction_col_name_%d", i))
		text := strings.TrimSpace(r.FormValue(fmt.Sprintf("instruction_%d", i)))
		if providedName == col.Name && text != "" {
			req.SetInstructions(i, text)
		}
	}

	rules := r.FormValue("system_prompt")
	if strings.TrimSpace(rules) == "" {
		rules = s.rules
	}
	batchSize := 0
	if v := r.FormValue("batch_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			batchSize = parsed
		}
	}

	progress := func(batchNum, totalBatches, size int) {
		log.Printf("processing batch %d/%d (%d keywords)", batchNum, totalBatches, size)
	}

	start := time.Now()
	res := s.engine.Classify(r.Context(), req, rules, batchSize, progress)

	base := strings.TrimSuffix(name, filepath.Ext(name))
	outputName := fmt.Sprintf("classified_%s_%s.xlsx", base, time.Now().Format("20060102_150405"))
	outPath, err := xlsxout.Write(filepath.Join(s.cfg.OutputDir, outputName), res.Headers, res.Rows)
	if err != nil {
		log.Printf("web write result: %v", err)
		s.renderHome(w, fmt.Sprintf("Error creating result file: %v", err))
		return
	}

	os.Remove(path)

	if err := sqlite.InsertJob(s.db, sqlite.Job{
		InputFile:     name,
		OutputFile:    filepath.Base(outPath),
		Keywords:      len(req.Keywords),
		Columns:       len(req.Columns),
		Batches:       res.TotalBatches,
		FailedBatches: res.FailedBatches,
		DurationMS:    time.Since(start).Milliseconds(),
		Provider:      s.cfg.LLMProvider,
		Model:         s.cfg.LLMModel,
	}); err != nil {
		log.Printf("web record job: %v", err)
	}
	s.notifier.JobFinished(name, filepath.Base(outPath), len(req.Keywords), res.TotalBatches, res.FailedBatches)

	render(w, successTmpl, successView{
		DownloadName:  filepath.Base(outPath),
		Processed:     len(res.Rows),
		FailedBatches: res.FailedBatches,
		TotalBatches:  res.TotalBatches,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, ok := safeFilename(r.PathValue("file"))
	if !ok {
		http.Error(w, "bad filename", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		s.renderHome(w, "File not found or expired")
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	http.ServeFile(w, r, path)

	// Artifact is ephemeral: remove it shortly after serving. The retention
	// sweeper catches anything this misses.
	time.AfterFunc(5*time.Second, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("web remove served output %s: %v", name, err)
		}
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := sqlite.RecentJobs(s.db, 50)
	if err != nil {
		http.Error(w, "failed to load jobs", http.StatusInternalServerError)
		return
	}
	render(w, jobsTmpl, jobsView{Jobs: jobs})
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	s = replacer.Replace(s)
	if s == "" || s == "." || s == ".." {
		s = "upload"
	}
	return s
}

func safeFilename(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}
