// Package domain provides core business rules for the deal pipeline bounded
// context: the stage lifecycle graph and the typed transition errors.
package domain

// Pre-sale stages, in lifecycle order.
const (
	StageProspecting   = "L0"
	StageQualification = "L1"
	StageProposal      = "L2"
	StagePOC           = "L3"
	StageNegotiation   = "L4"
	StageTerms         = "L5"
	StageReview        = "L6"
	StageSigned        = "L7"
)

// Post-sale stages, in lifecycle order.
const (
	StagePlanning   = "P0"
	StageDelivery   = "P1"
	StageAcceptance = "P2"
)

// Absorbing stages, reachable from every pre-sale stage before signing and
// terminal themselves.
const (
	StageLost   = "LOST"
	StageOnHold = "HOLD"
)

// InitialStage is the stage a newly created deal starts in unless the caller
// materializes it elsewhere.
const InitialStage = StageProspecting

// stageNames maps each stage code to its display name.
var stageNames = map[string]string{
	StageProspecting:   "Prospecting",
	StageQualification: "Qualification",
	StageProposal:      "Proposal",
	StagePOC:           "Proof of Concept",
	StageNegotiation:   "Negotiation",
	StageTerms:         "Terms",
	StageReview:        "Review",
	StageSigned:        "Signed",
	StagePlanning:      "Planning",
	StageDelivery:      "Delivery",
	StageAcceptance:    "Acceptance",
	StageLost:          "Lost",
	StageOnHold:        "On Hold",
}

// stageOrder lists all stages in presentation order.
var stageOrder = []string{
	StageProspecting,
	StageQualification,
	StageProposal,
	StagePOC,
	StageNegotiation,
	StageTerms,
	StageReview,
	StageSigned,
	StagePlanning,
	StageDelivery,
	StageAcceptance,
	StageLost,
	StageOnHold,
}

// transitions is the static lifecycle graph. Every pre-sale stage before
// signing can advance one step or fall into an absorbing stage; the signed
// stage has a single system edge into post-sale (taken by the auto-chain, not
// by user request); post-sale stages advance one step; terminal stages have no
// outgoing edges.
var transitions = map[string][]string{
	StageProspecting:   {StageQualification, StageLost, StageOnHold},
	StageQualification: {StageProposal, StageLost, StageOnHold},
	StageProposal:      {StagePOC, StageLost, StageOnHold},
	StagePOC:           {StageNegotiation, StageLost, StageOnHold},
	StageNegotiation:   {StageTerms, StageLost, StageOnHold},
	StageTerms:         {StageReview, StageLost, StageOnHold},
	StageReview:        {StageSigned, StageLost, StageOnHold},
	StageSigned:        {StagePlanning},
	StagePlanning:      {StageDelivery},
	StageDelivery:      {StageAcceptance},
	StageAcceptance:    {},
	StageLost:          {},
	StageOnHold:        {},
}

// IsKnownStage reports whether the stage is a member of the declared set.
func IsKnownStage(stage string) bool {
	_, ok := transitions[stage]
	return ok
}

// LegalNextStages returns the ordered set of stages reachable from the given
// stage. The result is empty for terminal and unknown stages. The returned
// slice is a copy; callers may mutate it freely.
func LegalNextStages(stage string) []string {
	next := transitions[stage]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// IsLegalTransition reports whether target is directly reachable from current.
func IsLegalTransition(current, target string) bool {
	for _, next := range transitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage has no outgoing edges.
func IsTerminal(stage string) bool {
	return IsKnownStage(stage) && len(transitions[stage]) == 0
}

// StageName returns the display name for a stage code, or the code itself for
// unknown stages.
func StageName(stage string) string {
	if name, ok := stageNames[stage]; ok {
		return name
	}
	return stage
}

// AllStages returns every declared stage in presentation order.
func AllStages() []string {
	out := make([]string, len(stageOrder))
	copy(out, stageOrder)
	return out
}
