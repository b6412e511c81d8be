package tasks

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/models"
)

func TestLogLineString(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.Local)

	tests := []struct {
		name string
		line LogLine
		want string
	}{
		{"row line", LogLine{Index: 0, Text: "updated", Time: at}, "[09:05:07] [1] updated"},
		{"run line", LogLine{Index: RunLevel, Text: "update started", Time: at}, "[09:05:07] update started"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	t.Run("delivers in publish order", func(t *testing.T) {
		rec := &recorder{}
		d := newDispatcher(1, nil, rec)
		for i := range 50 {
			d.publish(event{line: &LogLine{Index: i}})
		}
		d.close()

		if len(rec.lines) != 50 {
			t.Fatalf("delivered %d lines, want 50", len(rec.lines))
		}
		for i, l := range rec.lines {
			if l.Index != i {
				t.Fatalf("line %d has index %d", i, l.Index)
			}
		}
	})

	t.Run("publish after close", func(t *testing.T) {
		d := newDispatcher(1, nil)
		d.close()
		d.close()
		if d.publish(event{line: &LogLine{}}) {
			t.Error("publish after close should report false")
		}
	})
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	o := NewLogObserver(logger)

	o.OnStatus(StatusUpdate{Index: 1, VideoID: "abc", State: models.Failed, Reason: "video not found"})
	o.OnStatus(StatusUpdate{Index: 0, VideoID: "xyz", State: models.Completed})
	o.OnLog(LogLine{Index: 0, Level: log.WarnLevel, Text: "invalid categoryId"})
	o.OnLog(LogLine{Index: RunLevel, Level: log.InfoLevel, Text: "update started"})

	out := buf.String()
	for _, want := range []string{"row failed", "reason=\"video not found\"", "row completed", "video=xyz", "invalid categoryId", "row=1", "update started"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLineWriter(t *testing.T) {
	var lines []string
	w := NewLineWriter(func(s string) { lines = append(lines, s) })
	w.OnStatus(StatusUpdate{})
	w.OnLog(LogLine{Index: 2, Text: "hello", Time: time.Now()})

	if len(lines) != 1 || !strings.HasSuffix(lines[0], "[3] hello") {
		t.Errorf("lines = %q", lines)
	}
}
