package gates

import (
	"context"
	"strings"
)

// AnalysisReader supplies the analysis record backing gate evaluation as a
// flat field→text mapping. A deal without a record yields an empty map.
type AnalysisReader interface {
	AnalysisFields(ctx context.Context, dealID int) (map[string]string, error)
}

// Evaluator checks gate rules against a deal's analysis record.
type Evaluator struct {
	rules  Rules
	reader AnalysisReader
}

// NewEvaluator creates an evaluator over a fixed rule set.
func NewEvaluator(rules Rules, reader AnalysisReader) *Evaluator {
	if rules == nil {
		rules = Rules{}
	}
	return &Evaluator{rules: rules, reader: reader}
}

// Evaluate returns the display labels of every required field for the target
// stage that is missing or blank on the deal's analysis record, preserving
// configured order. An empty result means the transition is allowed. A target
// stage with no configured rule never blocks, and in that case the analysis
// record is not even fetched.
func (e *Evaluator) Evaluate(ctx context.Context, dealID int, targetStage string) ([]string, error) {
	required := e.rules[targetStage]
	if len(required) == 0 {
		return nil, nil
	}

	fields, err := e.reader.AnalysisFields(ctx, dealID)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, rule := range required {
		if strings.TrimSpace(fields[rule.Field]) == "" {
			label := rule.Label
			if label == "" {
				label = rule.Field
			}
			missing = append(missing, label)
		}
	}

	return missing, nil
}

// HasRule reports whether the target stage is gated at all.
func (e *Evaluator) HasRule(targetStage string) bool {
	return len(e.rules[targetStage]) > 0
}
