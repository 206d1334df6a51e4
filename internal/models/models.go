package models

// Track is one catalog entry extracted from a snapshot.
type Track struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Action is what a run decided to do with a track.
type Action string

const (
	ActionDeleted          Action = "deleted"
	ActionDeleteFailed     Action = "delete_failed"
	ActionUpdated          Action = "updated"
	ActionUpdateFailed     Action = "update_failed"
	ActionSkipped          Action = "skipped"
	ActionAlreadyProcessed Action = "already_processed"
)

// Outcome records the decision taken for a single track during a run
type Outcome struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	NewTitle string `yaml:"new_title,omitempty"`
	Action   Action `yaml:"action"`
	Error    string `yaml:"error,omitempty"`
}
