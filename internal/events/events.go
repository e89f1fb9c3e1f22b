package events

// Domain events shared across bounded contexts.

// DealStageChanged is published after every accepted stage write, including
// the automatic post-signing chain into the first post-sale stage.
type DealStageChanged struct {
	BaseEvent
	DealID    int    `json:"dealId"`
	ClientID  string `json:"clientId,omitempty"`
	FromStage string `json:"fromStage"`
	ToStage   string `json:"toStage"`
	Forced    bool   `json:"forced"`
	AutoChain bool   `json:"autoChain"`
}

// EventName returns the unique event identifier.
func (DealStageChanged) EventName() string { return "pipeline.deal.stage_changed" }

// NoteEnqueued is published when a raw note is accepted into the ingestion
// queue.
type NoteEnqueued struct {
	BaseEvent
	JobID int64 `json:"jobId"`
}

// EventName returns the unique event identifier.
func (NoteEnqueued) EventName() string { return "ingestion.note.enqueued" }

// NoteIngested is published when the worker completes an ingestion job.
type NoteIngested struct {
	BaseEvent
	JobID    int64  `json:"jobId"`
	ClientID string `json:"clientId"`
	DealID   *int   `json:"dealId,omitempty"`
}

// EventName returns the unique event identifier.
func (NoteIngested) EventName() string { return "ingestion.note.ingested" }

// NoteIngestFailed is published when the worker marks an ingestion job failed.
type NoteIngestFailed struct {
	BaseEvent
	JobID  int64  `json:"jobId"`
	Reason string `json:"reason"`
}

// EventName returns the unique event identifier.
func (NoteIngestFailed) EventName() string { return "ingestion.note.failed" }
