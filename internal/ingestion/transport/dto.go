package transport

import "encoding/json"

// EnqueueNoteRequest submits one free-form note for ingestion.
type EnqueueNoteRequest struct {
	Text string `json:"text" validate:"required,min=1,max=8000"`
}

// EnqueueNoteResponse acknowledges an accepted note.
type EnqueueNoteResponse struct {
	JobID  int64  `json:"jobId"`
	Status string `json:"status"`
}

// JobResponse represents an ingestion job in API responses. ResultData is the
// structured payload the worker extracted, present only on completed jobs;
// ErrorMessage is present only on failed jobs.
type JobResponse struct {
	ID           int64           `json:"id"`
	RawText      string          `json:"rawText"`
	Status       string          `json:"status"`
	ResultData   json.RawMessage `json:"resultData,omitempty"`
	ErrorMessage *string         `json:"errorMessage,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	ProcessedAt  *string         `json:"processedAt,omitempty"`
	CompletedAt  *string         `json:"completedAt,omitempty"`
}

// JobListResponse wraps a list of jobs.
type JobListResponse struct {
	Items []JobResponse `json:"items"`
	Total int           `json:"total"`
}
