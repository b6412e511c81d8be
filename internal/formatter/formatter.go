// package formatter renders run reports as CSV, JSON, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
)

// Report formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists every accepted format name.
var Formats = []string{FormatCSV, FormatJSON, FormatMarkdown, FormatText}

// Report is a run together with the final state of each of its rows.
type Report struct {
	Run     models.Run         `json:"run"`
	Results []models.RowResult `json:"results"`
}

// ExportToCSV writes one record per row with columns: Row, VideoID, State, Reason, URL
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Row", "VideoID", "State", "Reason", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range report.Results {
		record := []string{
			strconv.Itoa(r.Index + 1),
			r.VideoID,
			r.State.String(),
			r.Reason,
			models.WatchURL(r.VideoID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the whole report as indented JSON.
func ExportToJSON(report *Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ExportToMarkdown renders a summary header followed by a results table.
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	run := report.Run

	fmt.Fprintf(&buf, "# Run %d\n\n", run.Sequence)
	fmt.Fprintf(&buf, "**ID**: %s\n", run.ID)
	if run.InputPath != "" {
		fmt.Fprintf(&buf, "**Input**: %s\n", run.InputPath)
	}
	fmt.Fprintf(&buf, "**Status**: %s\n", run.Status)
	fmt.Fprintf(&buf, "**Started**: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Fprintf(&buf, "**Finished**: %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "**Rows**: %d completed, %d failed, %d skipped of %d\n\n",
		run.Completed, run.Failed, run.Skipped, run.Total)

	buf.WriteString("## Results\n\n")
	buf.WriteString("| Row | Video | State | Reason |\n")
	buf.WriteString("|---:|---|---|---|\n")
	for _, r := range report.Results {
		fmt.Fprintf(&buf, "| %d | [%s](%s) | %s | %s |\n",
			r.Index+1, r.VideoID, models.WatchURL(r.VideoID), r.State, escapeCell(r.Reason))
	}

	return buf.Bytes(), nil
}

// ExportToText renders an aligned listing for the terminal.
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	run := report.Run

	fmt.Fprintf(&buf, "Run %d (%s) %s\n", run.Sequence, run.ID, run.Status)
	fmt.Fprintf(&buf, "Completed: %d  Failed: %d  Skipped: %d  Total: %d\n\n",
		run.Completed, run.Failed, run.Skipped, run.Total)

	for _, r := range report.Results {
		line := fmt.Sprintf("[%d] %-12s %-10s", r.Index+1, r.VideoID, r.State)
		if r.Reason != "" {
			line += " " + r.Reason
		}
		buf.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ParseFormat resolves a format name or alias ("md", "text") to one of [Formats].
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: format %q (use %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// Render dispatches on format.
func Render(report *Report, format string) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatText:
		return ExportToText(report)
	default:
		return ExportToJSON(report)
	}
}

// FormatFromPath guesses a format from the file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// WriteReport renders report and writes it to path, creating parent directories.
func WriteReport(report *Report, format, path string) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
