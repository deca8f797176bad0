package sqlite

import (
	"path/filepath"
	"testing"
)

func TestInsertAndRecentJobs(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	jobs := []Job{
		{InputFile: "a.csv", OutputFile: "classified_a.xlsx", Keywords: 10, Columns: 2, Batches: 1, Provider: "gemini"},
		{InputFile: "b.xlsx", OutputFile: "classified_b.xlsx", Keywords: 450, Columns: 3, Batches: 3, FailedBatches: 1, DurationMS: 1234, Provider: "anthropic", Model: "claude-sonnet-4-5-20250929"},
	}
	for _, j := range jobs {
		if err := InsertJob(db, j); err != nil {
			t.Fatalf("InsertJob: %v", err)
		}
	}

	got, err := RecentJobs(db, 10)
	if err != nil {
		t.Fatalf("RecentJobs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got))
	}
	// Most recent first.
	if got[0].InputFile != "b.xlsx" {
		t.Fatalf("expected newest job first, got %+v", got[0])
	}
	if got[0].FailedBatches != 1 || got[0].Batches != 3 {
		t.Fatalf("batch counters not persisted: %+v", got[0])
	}
	if got[1].Keywords != 10 || got[1].Provider != "gemini" {
		t.Fatalf("unexpected older job: %+v", got[1])
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not populated")
	}
}

func TestRecentJobsLimit(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	for i := 0; i < 5; i++ {
		if err := InsertJob(db, Job{InputFile: "x.csv", OutputFile: "y.xlsx", Keywords: 1, Columns: 1, Batches: 1}); err != nil {
			t.Fatalf("InsertJob: %v", err)
		}
	}
	got, err := RecentJobs(db, 3)
	if err != nil {
		t.Fatalf("RecentJobs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit applied, got %d jobs", len(got))
	}
}
