package tasks

// Stage is a step of the per-row update protocol. Stages run strictly in order.
type Stage int

const (
	Fetching Stage = iota
	Merging
	Applying
	ThumbnailStage
	PlaylistStage
	Done
)

func (s Stage) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Merging:
		return "merging"
	case Applying:
		return "applying"
	case ThumbnailStage:
		return "thumbnail"
	case PlaylistStage:
		return "playlist"
	case Done:
		return "done"
	default:
		return ""
	}
}

// StageError records the stage at which a row failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
