// Package domain provides core business rules for the accounts bounded
// context: the activity action type vocabulary.
package domain

import "strings"

// Action types recorded on a client's work log.
const (
	ActionMeeting       = "meeting"
	ActionProposal      = "proposal"
	ActionDevelopment   = "development"
	ActionDocumentation = "documentation"
	ActionEmail         = "email"

	// ActionStageChange is written by the system when a deal moves stage.
	ActionStageChange = "stage_change"
)

// DefaultActionType is used when an incoming entry carries no recognizable
// action type.
const DefaultActionType = ActionMeeting

// Work log entry sources.
const (
	SourceManual = "manual"
	SourceAI     = "ai"
)

var knownActionTypes = map[string]struct{}{
	ActionMeeting:       {},
	ActionProposal:      {},
	ActionDevelopment:   {},
	ActionDocumentation: {},
	ActionEmail:         {},
	ActionStageChange:   {},
}

// IsKnownActionType reports whether the action type is a member of the
// declared vocabulary.
func IsKnownActionType(actionType string) bool {
	_, ok := knownActionTypes[actionType]
	return ok
}

// NormalizeActionType lowercases and trims the input and falls back to the
// default for anything outside the vocabulary.
func NormalizeActionType(actionType string) string {
	normalized := strings.ToLower(strings.TrimSpace(actionType))
	if _, ok := knownActionTypes[normalized]; ok {
		return normalized
	}
	return DefaultActionType
}
