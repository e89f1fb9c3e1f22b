// Package gates implements stage gate rules: per-target-stage field
// completeness requirements on a deal's MEDDIC analysis record, loaded from an
// external YAML file.
package gates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule names one required analysis field and its human-readable display label.
type Rule struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// Rules maps a target stage code to its required fields, in configured order.
type Rules map[string][]Rule

type rulesFile struct {
	MeddicGateRules map[string][]Rule `yaml:"meddic_gate_rules"`
}

// LoadRules reads gate rules from the given YAML file. A missing file disables
// gating entirely (empty rule set, no error); a malformed file is an error.
func LoadRules(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Rules{}, nil
		}
		return nil, fmt.Errorf("read gate rules: %w", err)
	}

	var parsed rulesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse gate rules: %w", err)
	}

	rules := Rules{}
	for stage, required := range parsed.MeddicGateRules {
		for _, r := range required {
			if r.Field == "" {
				return nil, fmt.Errorf("parse gate rules: stage %s has a rule without a field name", stage)
			}
		}
		rules[stage] = required
	}

	return rules, nil
}
