// Package parser turns free-form sales notes into structured fields via an
// LLM collaborator.
package parser

import (
	"context"
	"fmt"
)

// ParsedNote is the structured reading of one raw note. CompanyName is the
// only mandatory field; the rest are best-effort.
type ParsedNote struct {
	CompanyName string `json:"companyName"`
	ActionType  string `json:"actionType"`
	Content     string `json:"content"`
	DealName    string `json:"dealName"`
	DealStage   string `json:"dealStage"`
}

// NoteParser extracts structure from free text.
type NoteParser interface {
	Parse(ctx context.Context, rawText string) (ParsedNote, error)
}

// ParseError marks a note the model could not make sense of. Jobs failing
// with a ParseError carry the reason to the caller instead of being retried.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("note parsing failed: %s", e.Reason)
}
