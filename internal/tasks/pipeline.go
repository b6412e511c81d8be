package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/normalize"
	"github.com/desertthunder/ytmeta/internal/services"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/desertthunder/ytmeta/internal/thumbnail"
	"golang.org/x/time/rate"
)

// Worker pool bounds.
const (
	MinWorkers     = 1
	MaxWorkers     = 8
	DefaultWorkers = 3
)

const eventBuffer = 256

// ClampWorkers bounds n to [MinWorkers, MaxWorkers].
func ClampWorkers(n int) int {
	return max(MinWorkers, min(MaxWorkers, n))
}

// PipelineOpts configures a [Pipeline].
type PipelineOpts struct {
	Auth            services.Authenticator // Called once per worker
	Workers         int                    // Clamped to [MinWorkers, MaxWorkers]
	Limiter         *rate.Limiter          // Shared across workers; nil disables
	CallTimeout     time.Duration          // Deadline per remote call; zero disables
	DefaultCategory string                 // Used when the platform reports no category
	Validator       *thumbnail.Validator   // Defaults to [thumbnail.DefaultValidator]
	Observers       []Observer
	Logger          *log.Logger // Receives observer panics
}

// Pipeline runs the per-row update protocol over a worker pool.
type Pipeline struct {
	opts PipelineOpts
}

// NewPipeline fills in defaults for unset options.
func NewPipeline(opts PipelineOpts) *Pipeline {
	opts.Workers = ClampWorkers(opts.Workers)
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = DefaultCategory
	}
	if opts.Validator == nil {
		opts.Validator = thumbnail.DefaultValidator()
	}
	return &Pipeline{opts: opts}
}

// Workers is the effective worker count.
func (p *Pipeline) Workers() int {
	return p.opts.Workers
}

// Summary is the outcome of a finished run. Rows never started count as skipped and stay Ready.
type Summary struct {
	RunID     string             `json:"run_id"`
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	Stopped   bool               `json:"stopped"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at"`
	Results   []models.RowResult `json:"results"`
}

// tracker keeps the latest state of every row. It runs on the dispatcher goroutine.
type tracker struct {
	results  []models.RowResult
	position map[int]int
}

func (t *tracker) OnStatus(u StatusUpdate) {
	i, ok := t.position[u.Index]
	if !ok {
		return
	}
	r := &t.results[i]
	r.State = u.State
	r.Reason = u.Reason
	r.UpdatedAt = u.Time
}

func (t *tracker) OnLog(LogLine) {}

// Run is one in-progress invocation of the pipeline.
type Run struct {
	ID string

	p          *Pipeline
	queue      *Queue
	dispatcher *dispatcher
	tracker    *tracker
	wg         sync.WaitGroup
	authFailed atomic.Int32
	startedAt  time.Time
	idle       chan struct{} // closed once every worker has exited
	stopLogged chan struct{}
	done       chan struct{}
	summary    Summary
}

// Start launches the workers over q under a fresh run ID and returns immediately.
//
// If q was stopped before Start, no job runs.
func (p *Pipeline) Start(ctx context.Context, q *Queue) *Run {
	return p.StartRun(ctx, shared.GenerateID(), q)
}

// StartRun is [Pipeline.Start] with a caller-assigned run ID, e.g. one already recorded in run history.
func (p *Pipeline) StartRun(ctx context.Context, id string, q *Queue) *Run {
	rows := q.Rows()
	r := &Run{
		ID:         id,
		p:          p,
		queue:      q,
		tracker:    &tracker{results: make([]models.RowResult, len(rows)), position: make(map[int]int, len(rows))},
		startedAt:  time.Now(),
		idle:       make(chan struct{}),
		stopLogged: make(chan struct{}),
		done:       make(chan struct{}),
	}
	for i, row := range rows {
		r.tracker.position[row.Index] = i
		r.tracker.results[i] = models.RowResult{
			RunID:     r.ID,
			Index:     row.Index,
			VideoID:   row.VideoID,
			State:     models.Ready,
			UpdatedAt: r.startedAt,
		}
	}

	observers := append([]Observer{r.tracker}, p.opts.Observers...)
	r.dispatcher = newDispatcher(eventBuffer, p.opts.Logger, observers...)
	r.logf(RunLevel, log.InfoLevel, "update started: %d rows, %d workers", len(rows), p.opts.Workers)

	for i := range p.opts.Workers {
		r.wg.Add(1)
		go r.worker(ctx, i+1)
	}

	go r.reportStop()
	go r.finish()
	return r
}

// Stop discards every queued row and returns at once. Rows already in progress finish their protocol.
//
// Stop never waits on observers, so an observer may call it while an event is being delivered.
func (r *Run) Stop() {
	r.queue.Stop()
}

// reportStop logs the stop once the queue is drained, unless the workers finish first.
func (r *Run) reportStop() {
	defer close(r.stopLogged)
	select {
	case <-r.queue.Done():
		r.logf(RunLevel, log.WarnLevel, "stop requested, %d queued rows discarded", r.queue.Discarded())
	case <-r.idle:
	}
}

// Done is closed once Wait would return without blocking.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every worker has exited and every event has been delivered.
func (r *Run) Wait() Summary {
	<-r.done
	return r.summary
}

func (r *Run) finish() {
	r.wg.Wait()
	close(r.idle)
	<-r.stopLogged

	if n := int(r.authFailed.Load()); n == r.p.opts.Workers && r.queue.Len() > 0 {
		r.logf(RunLevel, log.ErrorLevel, "all %d workers failed to authenticate, %d rows not run", n, r.queue.Len())
	}

	s := Summary{
		RunID:     r.ID,
		Total:     len(r.tracker.results),
		Stopped:   r.queue.Stopped(),
		StartedAt: r.startedAt,
	}
	r.dispatcher.close()

	s.Results = r.tracker.results
	for _, res := range s.Results {
		switch res.State {
		case models.Completed:
			s.Completed++
		case models.Failed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	s.EndedAt = time.Now()
	r.summary = s
	close(r.done)
}

func (r *Run) logf(index int, level log.Level, format string, args ...any) {
	r.dispatcher.publish(event{line: &LogLine{
		RunID: r.ID,
		Index: index,
		Level: level,
		Text:  fmt.Sprintf(format, args...),
		Time:  time.Now(),
	}})
}

func (r *Run) status(row models.Row, state models.JobState, reason string) {
	r.dispatcher.publish(event{status: &StatusUpdate{
		RunID:   r.ID,
		Index:   row.Index,
		VideoID: row.VideoID,
		State:   state,
		Reason:  reason,
		Time:    time.Now(),
	}})
}

// worker authenticates once, then drains the queue. Authentication failure ends only this worker.
func (r *Run) worker(ctx context.Context, id int) {
	defer r.wg.Done()

	client, err := r.p.opts.Auth.NewClient(ctx)
	if err != nil {
		r.authFailed.Add(1)
		r.logf(RunLevel, log.ErrorLevel, "worker %d: authentication failed: %v", id, err)
		return
	}
	client = services.WithRateLimit(client, r.p.opts.Limiter)

	for {
		job, ok := r.queue.Next(ctx)
		if !ok {
			return
		}
		r.process(ctx, client, job.Row)
	}
}

func (r *Run) process(ctx context.Context, client services.MetadataClient, row models.Row) {
	r.status(row, models.Updating, "")

	if err := r.update(ctx, client, row); err != nil {
		r.logf(row.Index, log.ErrorLevel, "error: %v", err)
		r.status(row, models.Failed, err.Error())
		return
	}
	r.status(row, models.Completed, "")
}

func (r *Run) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.p.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, r.p.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// update runs the protocol for one row. Only fetching and applying can fail the row.
func (r *Run) update(ctx context.Context, client services.MetadataClient, row models.Row) error {
	if row.VideoID == "" {
		return &StageError{Stage: Fetching, Err: shared.ErrMissingVideoID}
	}

	cctx, cancel := r.callContext(ctx)
	current, err := client.FetchVideo(cctx, row.VideoID)
	cancel()
	if err != nil {
		return &StageError{Stage: Fetching, Err: timeoutError(err)}
	}

	body, warnings := Merge(current, row, r.p.opts.DefaultCategory)
	for _, w := range warnings {
		r.logf(row.Index, log.WarnLevel, "warning: %s", w)
	}

	cctx, cancel = r.callContext(ctx)
	err = client.UpdateVideo(cctx, body)
	cancel()
	if err != nil {
		return &StageError{Stage: Applying, Err: timeoutError(err)}
	}
	r.logf(row.Index, log.InfoLevel, "updated: %s", models.WatchURL(row.VideoID))

	r.thumbnail(ctx, client, row)
	r.playlist(ctx, client, row)
	return nil
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return err
}

// thumbnail is best-effort: every failure is logged and the row still completes.
func (r *Run) thumbnail(ctx context.Context, client services.MetadataClient, row models.Row) {
	path, ok := row.ThumbnailPath.Get()
	if !ok {
		return
	}
	if normalize.ParseBool(row.IsShort.Or("")) {
		r.logf(row.Index, log.InfoLevel, "marked as short, thumbnail update skipped")
		return
	}

	path = strings.TrimSpace(path)
	warn := func(msg string) { r.logf(row.Index, log.WarnLevel, "%s, skipping", msg) }
	if !r.p.opts.Validator.Validate(path, warn) {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		r.logf(row.Index, log.WarnLevel, "thumbnail error: %v", err)
		return
	}
	defer f.Close()

	cctx, cancel := r.callContext(ctx)
	defer cancel()
	if err := client.SetThumbnail(cctx, row.VideoID, f); err != nil {
		r.logf(row.Index, log.WarnLevel, "thumbnail error: %v", timeoutError(err))
		return
	}
	r.logf(row.Index, log.InfoLevel, "thumbnail updated")
}

// playlist is best-effort: a missing playlist or failed insert is logged and the row still completes.
func (r *Run) playlist(ctx context.Context, client services.MetadataClient, row models.Row) {
	playlistID := normalize.PlaylistID(row.PlaylistID.Or(""))
	if playlistID == "" {
		return
	}

	cctx, cancel := r.callContext(ctx)
	exists := client.PlaylistExists(cctx, playlistID)
	cancel()
	if !exists {
		r.logf(row.Index, log.WarnLevel, "warning: playlist not found or not accessible: %s", playlistID)
		return
	}

	cctx, cancel = r.callContext(ctx)
	defer cancel()
	if err := client.InsertPlaylistItem(cctx, playlistID, row.VideoID); err != nil {
		r.logf(row.Index, log.WarnLevel, "playlist insert error: %v", timeoutError(err))
		return
	}
	r.logf(row.Index, log.InfoLevel, "added to playlist: %s", playlistID)
}
