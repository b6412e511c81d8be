package repositories

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/tasks"
)

// Recorder persists terminal row states as the pipeline reports them,
// so an interrupted process still leaves a partial history behind.
type Recorder struct {
	repo   *RunRepository
	logger *log.Logger
	saved  int
}

// NewRecorder creates a [tasks.Observer] backed by repo. Write failures are logged, never fatal.
func NewRecorder(repo *RunRepository, logger *log.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (rec *Recorder) OnStatus(u tasks.StatusUpdate) {
	if !u.State.Terminal() {
		return
	}

	err := rec.repo.SaveResult(models.RowResult{
		RunID:     u.RunID,
		Index:     u.Index,
		VideoID:   u.VideoID,
		State:     u.State,
		Reason:    u.Reason,
		UpdatedAt: u.Time,
	})
	if err != nil {
		if rec.logger != nil {
			rec.logger.Warn("could not record row result", "row", u.Index+1, "video", u.VideoID, "err", err)
		}
		return
	}
	rec.saved++
}

func (rec *Recorder) OnLog(tasks.LogLine) {}

// Saved is the number of results written so far.
func (rec *Recorder) Saved() int {
	return rec.saved
}
