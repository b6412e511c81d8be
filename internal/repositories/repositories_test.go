package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/desertthunder/ytmeta/internal/tasks"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func createRun(t *testing.T, repo *RunRepository, path string) *models.Run {
	t.Helper()
	run := &models.Run{InputPath: path, Workers: 3, Total: 2}
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		first := createRun(t, repo, "videos.csv")
		second := createRun(t, repo, "videos.xlsx")

		if first.ID == "" || second.ID == "" {
			t.Fatal("run IDs should be set after creation")
		}
		if first.ID == second.ID {
			t.Error("run IDs should be unique")
		}
		if first.Sequence != 1 || second.Sequence != 2 {
			t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence, second.Sequence)
		}
		if first.Status != models.RunRunning {
			t.Errorf("expected status %q, got %q", models.RunRunning, first.Status)
		}
		if first.StartedAt.IsZero() {
			t.Error("start time should be set")
		}
	})

	t.Run("CreateKeepsAssignedID", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := &models.Run{ID: "run-fixed", InputPath: "videos.csv"}
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get("run-fixed")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.InputPath != "videos.csv" {
			t.Errorf("expected input path videos.csv, got %s", got.InputPath)
		}
	})

	t.Run("CreateRequiresInputPath", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		err := repo.Create(&models.Run{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, "videos.csv")

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Sequence != run.Sequence {
			t.Errorf("expected sequence %d, got %d", run.Sequence, got.Sequence)
		}
		if got.Workers != 3 || got.Total != 2 {
			t.Errorf("expected workers 3 and total 2, got %d and %d", got.Workers, got.Total)
		}
		if got.FinishedAt != nil {
			t.Error("unfinished run should have no finish time")
		}

		bySeq, err := repo.GetBySequence(run.Sequence)
		if err != nil {
			t.Fatalf("failed to get run by sequence: %v", err)
		}
		if bySeq.ID != run.ID {
			t.Errorf("expected ID %s, got %s", run.ID, bySeq.ID)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if _, err := repo.GetBySequence(99); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Finish", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, "videos.csv")

		run.Status = models.RunStopped
		run.Completed = 1
		run.Skipped = 1
		results := []models.RowResult{
			{RunID: run.ID, Index: 0, VideoID: "abc", State: models.Completed},
			{RunID: run.ID, Index: 1, VideoID: "def", State: models.Ready},
		}
		if err := repo.Finish(run, results); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunStopped {
			t.Errorf("expected status %q, got %q", models.RunStopped, got.Status)
		}
		if got.Completed != 1 || got.Skipped != 1 || got.Failed != 0 {
			t.Errorf("unexpected counts: %+v", got)
		}
		if got.FinishedAt == nil {
			t.Error("finished run should have a finish time")
		}

		saved, err := repo.Results(run.ID)
		if err != nil {
			t.Fatalf("failed to list results: %v", err)
		}
		if len(saved) != 2 {
			t.Fatalf("expected 2 results, got %d", len(saved))
		}
		if saved[1].State != models.Ready {
			t.Errorf("expected row 1 ready, got %s", saved[1].State)
		}
	})

	t.Run("FinishNotFound", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		err := repo.Finish(&models.Run{ID: "nonexistent-id", Status: models.RunFinished}, nil)
		if !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("SaveResultUpserts", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, "videos.csv")

		first := models.RowResult{RunID: run.ID, Index: 0, VideoID: "abc", State: models.Updating}
		if err := repo.SaveResult(first); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		second := first
		second.State = models.Failed
		second.Reason = "video not found"
		if err := repo.SaveResult(second); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		saved, err := repo.Results(run.ID)
		if err != nil {
			t.Fatalf("failed to list results: %v", err)
		}
		if len(saved) != 1 {
			t.Fatalf("expected 1 result, got %d", len(saved))
		}
		if saved[0].State != models.Failed || saved[0].Reason != "video not found" {
			t.Errorf("unexpected result: %+v", saved[0])
		}
	})

	t.Run("SaveResultUnknownRun", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		err := repo.SaveResult(models.RowResult{RunID: "nonexistent-id", Index: 0, VideoID: "abc", State: models.Completed})
		if err == nil {
			t.Error("expected foreign key error for unknown run")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for _, path := range []string{"a.csv", "b.csv", "c.csv"} {
			createRun(t, repo, path)
		}

		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].InputPath != "c.csv" {
			t.Errorf("expected newest run first, got %s", all[0].InputPath)
		}

		limited, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs, got %d", len(limited))
		}
	})
}

func TestRecorder(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))
	run := createRun(t, repo, "videos.csv")
	rec := NewRecorder(repo, nil)

	now := time.Now()
	updates := []tasks.StatusUpdate{
		{RunID: run.ID, Index: 0, VideoID: "abc", State: models.Updating, Time: now},
		{RunID: run.ID, Index: 0, VideoID: "abc", State: models.Completed, Time: now},
		{RunID: run.ID, Index: 1, VideoID: "def", State: models.Updating, Time: now},
		{RunID: run.ID, Index: 1, VideoID: "def", State: models.Failed, Reason: "boom", Time: now},
		{RunID: "nonexistent-id", Index: 2, VideoID: "ghi", State: models.Completed, Time: now},
	}
	for _, u := range updates {
		rec.OnStatus(u)
	}
	rec.OnLog(tasks.LogLine{RunID: run.ID, Text: "ignored"})

	if rec.Saved() != 2 {
		t.Errorf("expected 2 saved results, got %d", rec.Saved())
	}

	saved, err := repo.Results(run.ID)
	if err != nil {
		t.Fatalf("failed to list results: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 results, got %d", len(saved))
	}
	if saved[0].State != models.Completed {
		t.Errorf("expected row 0 completed, got %s", saved[0].State)
	}
	if saved[1].State != models.Failed || saved[1].Reason != "boom" {
		t.Errorf("unexpected row 1 result: %+v", saved[1])
	}
}
