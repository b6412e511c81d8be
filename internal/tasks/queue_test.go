package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/desertthunder/ytmeta/internal/models"
)

func makeRows(ids ...string) []models.Row {
	rows := make([]models.Row, len(ids))
	for i, id := range ids {
		rows[i] = models.NewRow(i, map[string]string{models.VideoIDColumn: id})
	}
	return rows
}

func TestQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("FIFO in row order", func(t *testing.T) {
		q := NewQueue(makeRows("a", "b", "c"))
		if q.Len() != 3 {
			t.Fatalf("Len() = %d, want 3", q.Len())
		}
		for _, want := range []string{"a", "b", "c"} {
			job, ok := q.Next(ctx)
			if !ok || job.Row.VideoID != want {
				t.Fatalf("Next() = %q, %v; want %q", job.Row.VideoID, ok, want)
			}
		}
		if _, ok := q.Next(ctx); ok {
			t.Error("Next() on empty queue should report false")
		}
	})

	t.Run("stop drains and is idempotent", func(t *testing.T) {
		q := NewQueue(makeRows("a", "b", "c"))
		q.Next(ctx)

		if n := q.Stop(); n != 2 {
			t.Errorf("Stop() = %d, want 2", n)
		}
		if n := q.Stop(); n != 0 {
			t.Errorf("second Stop() = %d, want 0", n)
		}
		if !q.Stopped() || q.Len() != 0 || q.Discarded() != 2 {
			t.Errorf("Stopped=%v Len=%d Discarded=%d", q.Stopped(), q.Len(), q.Discarded())
		}
		if _, ok := q.Next(ctx); ok {
			t.Error("Next() after Stop should report false")
		}
	})

	t.Run("rows are a snapshot", func(t *testing.T) {
		rows := makeRows("a")
		q := NewQueue(rows)
		rows[0].VideoID = "mutated"
		job, _ := q.Next(ctx)
		if job.Row.VideoID != "a" {
			t.Errorf("job row = %q, want a", job.Row.VideoID)
		}
	})

	t.Run("concurrent consumers see each job once", func(t *testing.T) {
		ids := make([]string, 200)
		for i := range ids {
			ids[i] = string(rune('A' + i%26))
		}
		q := NewQueue(makeRows(ids...))

		var mu sync.Mutex
		seen := make(map[int]int)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					job, ok := q.Next(ctx)
					if !ok {
						return
					}
					mu.Lock()
					seen[job.Row.Index]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != 200 {
			t.Errorf("saw %d distinct jobs, want 200", len(seen))
		}
		for idx, n := range seen {
			if n != 1 {
				t.Errorf("job %d dequeued %d times", idx, n)
			}
		}
	})
}
