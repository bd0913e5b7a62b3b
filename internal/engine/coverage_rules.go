package engine

import (
	"encoding/json"
	"fmt"
)

// parseCoverageRules parses one service.coverage[planId] raw JSON value,
// which is "coverage-rule | ordered sequence of coverage-rules" per spec
// §3, into a canonical slice (singletons wrapped) with each rule's
// deductible timing normalized.
func parseCoverageRules(raw json.RawMessage) ([]CoverageRule, error) {
	var rules []CoverageRule
	if err := json.Unmarshal(raw, &rules); err == nil {
		for i := range rules {
			if err := rules[i].normalize(); err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
		}
		return rules, nil
	}
	var single CoverageRule
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("coverage rule is neither an object nor an array: %w", err)
	}
	if err := single.normalize(); err != nil {
		return nil, err
	}
	return []CoverageRule{single}, nil
}
