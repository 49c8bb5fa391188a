package models

import "time"

// RunFailure describes a run that ended in the Failed state. It is kept for
// operators; nothing replays it automatically.
type RunFailure struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	TransNum  string    `json:"trans_num,omitempty"`
	Persisted bool      `json:"persisted"`
	FailedAt  time.Time `json:"failed_at"`
}
