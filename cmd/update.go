package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmeta/internal/formatter"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/normalize"
	"github.com/desertthunder/ytmeta/internal/repositories"
	"github.com/desertthunder/ytmeta/internal/services"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/desertthunder/ytmeta/internal/table"
	"github.com/desertthunder/ytmeta/internal/tasks"
	"github.com/desertthunder/ytmeta/internal/thumbnail"
	"github.com/desertthunder/ytmeta/internal/ui"
	"github.com/desertthunder/ytmeta/internal/web"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/ytmeta-tui.log"

// UpdateRun loads a sheet and applies every row through the worker pool.
//
// The first interrupt discards queued rows and lets in-flight rows finish; the second cancels them.
func (r *Runner) UpdateRun(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("file"))
	if path == "" {
		return fmt.Errorf("%w: sheet file", shared.ErrMissingArgument)
	}

	reportPath := cmd.String("report")
	format := cmd.String("format")
	if format == "" && reportPath != "" {
		format = formatter.FormatFromPath(reportPath)
	}
	if format != "" {
		var err error
		if format, err = formatter.ParseFormat(format); err != nil {
			return err
		}
	}

	tbl, err := table.Load(path)
	if err != nil {
		return err
	}

	workers := r.config.Pipeline.Workers
	if cmd.IsSet("workers") {
		workers = cmd.Int("workers")
	}
	if clamped := tasks.ClampWorkers(workers); clamped != workers {
		r.logger.Warn("worker count out of range, clamped", "requested", workers, "using", clamped)
		workers = clamped
	}

	timeout, err := r.config.Pipeline.Timeout()
	if err != nil {
		return err
	}

	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	useTUI := cmd.Bool("tui")
	if useTUI {
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	record := &models.Run{InputPath: path, Workers: workers, Total: len(tbl.Rows)}
	var repo *repositories.RunRepository
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("run history disabled", "err", err)
	} else {
		defer db.Close()
		repo = repositories.NewRunRepository(db)
		if err := repo.Create(record); err != nil {
			r.logger.Warn("run history disabled", "err", err)
			repo = nil
		}
	}
	if record.ID == "" {
		record.ID = shared.GenerateID()
	}

	observers := []tasks.Observer{tasks.NewLogObserver(shared.WithLogger(r.logger, "run", record.Sequence))}
	if logPath := cmd.String("log"); logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open run log: %w", err)
		}
		defer logFile.Close()
		observers = append(observers, tasks.NewLineWriter(func(line string) {
			fmt.Fprintln(logFile, line)
		}))
	}
	if repo != nil {
		observers = append(observers, repositories.NewRecorder(repo, r.logger))
	}

	listen := cmd.String("listen")
	if listen == "" {
		listen = r.config.Web.Listen
	}
	if listen != "" {
		hub := web.NewHub(r.logger)
		hub.Track(record.ID, tbl.Rows)
		events := web.NewServer(hub, r.logger)
		addr, err := events.Start(listen)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := events.Shutdown(shutdownCtx); err != nil {
				r.logger.Warn("error shutting down event server", "err", err)
			}
		}()
		r.logger.Info("event stream listening", "status", fmt.Sprintf("http://%s/status", addr), "events", fmt.Sprintf("ws://%s/events", addr))
		observers = append(observers, hub)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var run *tasks.Run
	var prog *ui.Program
	if useTUI {
		prog = ui.NewProgram(tbl.Rows, func() { run.Stop() }, tea.WithAltScreen(), tea.WithContext(ctx))
		observers = append(observers, prog.Observer())
	}

	pipeline := tasks.NewPipeline(tasks.PipelineOpts{
		Auth:            auth,
		Workers:         workers,
		Limiter:         services.NewLimiter(r.config.Pipeline.RequestsPerSecond),
		CallTimeout:     timeout,
		DefaultCategory: r.config.Pipeline.DefaultCategory,
		Observers:       observers,
		Logger:          r.logger,
	})
	run = pipeline.StartRun(ctx, record.ID, tasks.NewQueue(tbl.Rows))

	stopSignals := r.handleSignals(run, cancel)
	defer stopSignals()

	if prog != nil {
		go func() { prog.Finish(run.Wait()) }()
		if err := prog.Run(); err != nil {
			r.logger.Error("tui stopped", "err", err)
			run.Stop()
		}
	}
	summary := run.Wait()

	record.Status = models.RunFinished
	if summary.Stopped {
		record.Status = models.RunStopped
	}
	record.Completed = summary.Completed
	record.Failed = summary.Failed
	record.Skipped = summary.Skipped
	record.FinishedAt = &summary.EndedAt
	if repo != nil {
		if err := repo.Finish(record, summary.Results); err != nil {
			r.logger.Warn("could not record run", "err", err)
		}
	}

	r.printSummary(record, summary)

	if reportPath != "" {
		report := &formatter.Report{Run: *record, Results: summary.Results}
		if err := formatter.WriteReport(report, format, reportPath); err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", reportPath)
	}

	if summary.Total > 0 && summary.Completed+summary.Failed == 0 && !summary.Stopped {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("update aborted: %w", err)
		}
		return fmt.Errorf("%w: no rows were processed", shared.ErrAuthFailed)
	}
	return nil
}

func (r *Runner) printSummary(record *models.Run, s tasks.Summary) {
	title := "Update finished"
	if s.Stopped {
		title = "Update stopped"
	}
	if record.Sequence > 0 {
		title = fmt.Sprintf("%s (run #%d)", title, record.Sequence)
	}

	r.writePlainHeader(title)
	r.writePlain("Rows: %d  Completed: %d  Failed: %d  Skipped: %d\n", s.Total, s.Completed, s.Failed, s.Skipped)
	r.writePlain("Duration: %s\n", s.EndedAt.Sub(s.StartedAt).Round(time.Millisecond))

	if s.Failed == 0 {
		return
	}
	r.writePlainln("Failed rows:")
	for _, res := range s.Results {
		if res.State == models.Failed {
			r.writePlain("  [%d] %s: %s\n", res.Index+1, res.VideoID, res.Reason)
		}
	}
}

// handleSignals maps the first interrupt to a stop and the second to cancellation.
func (r *Runner) handleSignals(run *tasks.Run, cancel context.CancelFunc) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		interrupts := 0
		for {
			select {
			case <-sigs:
				interrupts++
				if interrupts == 1 {
					r.logger.Warn("interrupt received, finishing in-flight rows (interrupt again to abort)")
					run.Stop()
					continue
				}
				r.logger.Warn("aborting in-flight rows")
				cancel()
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// change is one field a row would set.
type change struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// rowCheck is the offline preview of one row.
type rowCheck struct {
	Row      int      `json:"row"`
	VideoID  string   `json:"video_id"`
	Changes  []change `json:"changes"`
	Warnings []string `json:"warnings,omitempty"`
}

// UpdateCheck normalizes every row as a run would, without contacting the API.
//
// Fields the sheet leaves empty keep their remote value and are not listed.
func (r *Runner) UpdateCheck(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("file"))
	if path == "" {
		return fmt.Errorf("%w: sheet file", shared.ErrMissingArgument)
	}

	tbl, err := table.Load(path)
	if err != nil {
		return err
	}

	validator := thumbnail.DefaultValidator()
	checks := make([]rowCheck, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		checks = append(checks, checkRow(row, r.config.Pipeline.DefaultCategory, validator))
	}

	if cmd.Bool("json") {
		return r.writeJSON(checks, true)
	}

	if len(tbl.Missing) > 0 {
		r.writePlain("Columns not in sheet (left unchanged): %s\n\n", strings.Join(tbl.Missing, ", "))
	}
	warned := 0
	for _, c := range checks {
		r.writePlain("[%d] %s\n", c.Row, c.VideoID)
		if len(c.Changes) == 0 {
			r.writePlain("    (no changes)\n")
		}
		for _, ch := range c.Changes {
			r.writePlain("    %-12s %s\n", ch.Field+":", ch.Value)
		}
		for _, w := range c.Warnings {
			r.writePlain("    warning: %s\n", w)
		}
		if len(c.Warnings) > 0 {
			warned++
		}
	}
	r.writePlainln("%d rows checked, %d with warnings", len(checks), warned)
	return nil
}

func checkRow(row models.Row, defaultCategory string, validator *thumbnail.Validator) rowCheck {
	update, warnings := tasks.Merge(models.Video{ID: row.VideoID}, row, defaultCategory)
	c := rowCheck{Row: row.Label(), VideoID: row.VideoID, Changes: []change{}, Warnings: warnings}
	add := func(field, value string) {
		c.Changes = append(c.Changes, change{Field: field, Value: value})
	}

	if row.Title.Present() {
		add("title", update.Snippet.Title)
	}
	if row.Description.Present() {
		desc, _, more := strings.Cut(update.Snippet.Description, "\n")
		if more {
			desc += " …"
		}
		add("description", desc)
	}
	if row.Tags.Present() {
		add("tags", strings.Join(update.Snippet.Tags.Or(nil), ", "))
	}
	if row.CategoryID.Present() {
		if name, ok := normalize.CategoryTitle(update.Snippet.CategoryID); ok {
			add("category", fmt.Sprintf("%s (%s)", update.Snippet.CategoryID, name))
		}
	}
	if row.PrivacyStatus.Present() || row.PublishAt.Present() {
		add("privacy", update.Status.PrivacyStatus)
	}
	if row.PublishAt.Present() {
		add("publishAt", update.Status.PublishAt)
	}
	if row.MadeForKids.Present() {
		add("kids", strconv.FormatBool(update.Status.MadeForKids))
	}
	if path, ok := row.ThumbnailPath.Get(); ok {
		switch {
		case normalize.ParseBool(row.IsShort.Or("")):
			add("thumbnail", "skipped (short)")
		case validator.Validate(strings.TrimSpace(path), func(msg string) { c.Warnings = append(c.Warnings, msg) }):
			add("thumbnail", strings.TrimSpace(path))
		default:
			add("thumbnail", "rejected")
		}
	}
	if id := normalize.PlaylistID(row.PlaylistID.Or("")); id != "" {
		add("playlist", id)
	}
	return c
}
