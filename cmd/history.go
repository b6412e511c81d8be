package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytmeta/internal/formatter"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/repositories"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints the most recent runs.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded.\n")
	}
	for _, run := range runs {
		r.writePlain("#%-4d %s  %-8s %3d rows  %3d ok  %3d failed  %3d skipped  %s\n",
			run.Sequence,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.Total, run.Completed, run.Failed, run.Skipped,
			run.InputPath,
		)
	}
	return nil
}

// HistoryShow renders one run and its row results.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.StringArg("run"))
	if key == "" {
		return fmt.Errorf("%w: run ID or #sequence", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	run, err := findRun(repo, key)
	if err != nil {
		return err
	}

	results, err := repo.Results(run.ID)
	if err != nil {
		return err
	}

	out, err := formatter.Render(&formatter.Report{Run: *run, Results: results}, cmd.String("format"))
	if err != nil {
		return err
	}
	_, err = r.output.Write(out)
	return err
}

// findRun accepts a run UUID, "#N" or a bare sequence number.
func findRun(repo *repositories.RunRepository, key string) (*models.Run, error) {
	if seq, err := strconv.Atoi(strings.TrimPrefix(key, "#")); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(key)
}
