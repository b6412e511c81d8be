package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/models"
)

// RunLevel is the LogLine index for lines that belong to the run rather than a row.
const RunLevel = -1

// StatusUpdate is a row state transition.
type StatusUpdate struct {
	RunID   string
	Index   int
	VideoID string
	State   models.JobState
	Reason  string
	Time    time.Time
}

// LogLine is a timestamped message, either about a row or about the run (Index == RunLevel).
type LogLine struct {
	RunID string
	Index int
	Level log.Level
	Text  string
	Time  time.Time
}

// String renders "[HH:MM:SS] [row] text" with a 1-based row number.
func (l LogLine) String() string {
	ts := l.Time.Format(time.TimeOnly)
	if l.Index == RunLevel {
		return fmt.Sprintf("[%s] %s", ts, l.Text)
	}
	return fmt.Sprintf("[%s] [%d] %s", ts, l.Index+1, l.Text)
}

// Observer receives pipeline events. Calls are serialized on one goroutine,
// so implementations need no locking of their own.
type Observer interface {
	OnStatus(StatusUpdate)
	OnLog(LogLine)
}

type event struct {
	status *StatusUpdate
	line   *LogLine
}

// dispatcher fans events from every worker out to the observers on a single goroutine.
//
// publish blocks only when the buffer is full; events are never dropped.
type dispatcher struct {
	events    chan event
	observers []Observer
	done      chan struct{}
	logger    *log.Logger

	mu     sync.RWMutex
	closed bool
}

func newDispatcher(buffer int, logger *log.Logger, observers ...Observer) *dispatcher {
	d := &dispatcher{
		events:    make(chan event, buffer),
		observers: observers,
		done:      make(chan struct{}),
		logger:    logger,
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		for _, o := range d.observers {
			d.deliver(o, ev)
		}
	}
}

func (d *dispatcher) deliver(o Observer, ev event) {
	defer func() {
		if r := recover(); r != nil && d.logger != nil {
			d.logger.Error("observer panicked", "observer", fmt.Sprintf("%T", o), "panic", r)
		}
	}()
	if ev.status != nil {
		o.OnStatus(*ev.status)
	} else {
		o.OnLog(*ev.line)
	}
}

// publish reports false once the dispatcher is closed.
func (d *dispatcher) publish(ev event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.events <- ev
	return true
}

// close waits until every published event has been delivered.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.done
}

// LogObserver writes pipeline events to a structured logger.
type LogObserver struct {
	logger *log.Logger
}

// NewLogObserver returns an [Observer] backed by l.
func NewLogObserver(l *log.Logger) *LogObserver {
	return &LogObserver{logger: l}
}

func (o *LogObserver) OnStatus(u StatusUpdate) {
	kv := []any{"row", u.Index + 1, "video", u.VideoID, "state", u.State}
	switch u.State {
	case models.Failed:
		o.logger.Error("row failed", append(kv, "reason", u.Reason)...)
	case models.Completed:
		o.logger.Info("row completed", kv...)
	default:
		o.logger.Debug("row status", kv...)
	}
}

func (o *LogObserver) OnLog(l LogLine) {
	if l.Index == RunLevel {
		o.logger.Log(l.Level, l.Text)
		return
	}
	o.logger.Log(l.Level, l.Text, "row", l.Index+1)
}

// LineWriter is an [Observer] that prints each log line in its rendered form.
type LineWriter struct {
	write func(string)
}

// NewLineWriter returns an Observer that passes every rendered log line to write.
func NewLineWriter(write func(string)) *LineWriter {
	return &LineWriter{write: write}
}

func (w *LineWriter) OnStatus(StatusUpdate) {}

func (w *LineWriter) OnLog(l LogLine) {
	w.write(l.String())
}
