package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		input_file     TEXT NOT NULL,
		output_file    TEXT NOT NULL,
		keywords       INTEGER NOT NULL,
		columns        INTEGER NOT NULL,
		batches        INTEGER NOT NULL,
		failed_batches INTEGER NOT NULL DEFAULT 0,
		duration_ms    INTEGER NOT NULL DEFAULT 0,
		llm_provider   TEXT DEFAULT '',
		llm_model      TEXT DEFAULT '',
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// Job is one finished classification run. FailedBatches > 0 means some
// keywords degraded to blank fallback rows.
type Job struct {
	ID            int64
	InputFile     string
	OutputFile    string
	Keywords      int
	Columns       int
	Batches       int
	FailedBatches int
	DurationMS    int64
	Provider      string
	Model         string
	CreatedAt     time.Time
}

func InsertJob(db *sql.DB, job Job) error {
	_, err := db.Exec(
		`INSERT INTO jobs (input_file, output_file, keywords, columns, batches, failed_batches, duration_ms, llm_provider, llm_model)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.InputFile, job.OutputFile, job.Keywords, job.Columns,
		job.Batches, job.FailedBatches, job.DurationMS, job.Provider, job.Model,
	)
	return err
}

func RecentJobs(db *sql.DB, limit int) ([]Job, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, input_file, output_file, keywords, columns, batches, failed_batches, duration_ms, llm_provider, llm_model, created_at
		 FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.InputFile, &j.OutputFile, &j.Keywords, &j.Columns,
			&j.Batches, &j.FailedBatches, &j.DurationMS, &j.Provider, &j.Model, &j.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
