package pipeline

// State is a step of one pipeline run.
type State uint8

const (
	Idle State = iota
	Extracting
	Transforming
	Scoring
	Persisting
	Gating
	NotifySent
	NotifySkipped
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Transforming:
		return "transforming"
	case Scoring:
		return "scoring"
	case Persisting:
		return "persisting"
	case Gating:
		return "gating"
	case NotifySent:
		return "notify_sent"
	case NotifySkipped:
		return "notify_skipped"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
