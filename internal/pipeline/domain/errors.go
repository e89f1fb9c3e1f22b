package domain

import (
	"fmt"
	"strings"
)

// IllegalTransitionError reports a target stage that is not reachable from the
// deal's current stage. It carries the legal set so callers can present
// alternatives.
type IllegalTransitionError struct {
	Current string
	Target  string
	Allowed []string
}

func (e *IllegalTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot transition from %s to %s: %s is terminal", e.Current, e.Target, e.Current)
	}
	return fmt.Sprintf("cannot transition from %s to %s: allowed targets are %s",
		e.Current, e.Target, strings.Join(e.Allowed, ", "))
}

// GateBlockedError reports a transition blocked by unmet gate preconditions.
// MissingLabels holds the display labels of the unmet fields in configured
// order.
type GateBlockedError struct {
	Target        string
	MissingLabels []string
}

func (e *GateBlockedError) Error() string {
	return fmt.Sprintf("transition to %s blocked: missing %s",
		e.Target, strings.Join(e.MissingLabels, ", "))
}
