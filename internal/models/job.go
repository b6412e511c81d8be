package models

import "time"

// JobState is the externally observable state of one row.
//
// Transitions are Ready → Updating → Completed | Failed.
type JobState int

const (
	Ready JobState = iota
	Updating
	Completed
	Failed
)

func (s JobState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Updating:
		return "updating"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s JobState) Terminal() bool {
	return s == Completed || s == Failed
}

// ParseJobState is the inverse of [JobState.String].
func ParseJobState(s string) (JobState, bool) {
	for _, st := range []JobState{Ready, Updating, Completed, Failed} {
		if st.String() == s {
			return st, true
		}
	}
	return Ready, false
}

// MarshalText implements encoding.TextMarshaler so states serialize by label.
func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Run status labels persisted with run history.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunStopped  = "stopped"
)

// Run is a persisted record of one pipeline invocation.
type Run struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"sequence"`
	InputPath  string     `json:"input_path"`
	Workers    int        `json:"workers"`
	Status     string     `json:"status"`
	Total      int        `json:"total"`
	Completed  int        `json:"completed"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RowResult is the persisted terminal state of a row within a run.
type RowResult struct {
	RunID     string    `json:"run_id"`
	Index     int       `json:"row"`
	VideoID   string    `json:"video_id"`
	State     JobState  `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
