package pipeline

import "time"

// State is the runner's position in a run.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching_category"
	StateProcessing State = "processing_item"
	StateNotifying  State = "notifying"
)

// Progress is a point-in-time view of the runner.
type Progress struct {
	State         State     `json:"state"`
	RunID         string    `json:"run_id,omitempty"`
	Trigger       string    `json:"trigger,omitempty"`
	Category      string    `json:"category,omitempty"`
	CategoryIndex int       `json:"category_index"`
	ItemIndex     int       `json:"item_index"`
	StartedAt     time.Time `json:"started_at"`
}
