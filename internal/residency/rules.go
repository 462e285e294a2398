package residency

import (
	"fmt"
	"sort"

	id "sovereign/pkg/domain"
)

// Evaluate walks the applicable rules in ascending priority order and returns
// the first violation found. No applicable rules means compliant.
// This is pure domain logic - no I/O, no side effects.
func Evaluate(rules []Rule, jurisdiction id.Jurisdiction, classification id.DataClassification, region string) Decision {
	applicable := applicableRules(rules, jurisdiction, classification)

	for _, rule := range applicable {
		if rule.permits(region) {
			continue
		}
		return Decision{
			Compliant: false,
			RuleID:    rule.ID,
			Action:    rule.Action,
			Reason:    fmt.Sprintf("region %q violates residency rule %s", region, rule.ID),
		}
	}
	return Decision{Compliant: true}
}

// FilterRegions returns the subset of candidate regions every applicable rule
// permits, preserving input order. With no applicable rules all candidates
// pass.
func FilterRegions(rules []Rule, jurisdiction id.Jurisdiction, classification id.DataClassification, candidates []string) []string {
	applicable := applicableRules(rules, jurisdiction, classification)

	permitted := make([]string, 0, len(candidates))
	for _, region := range candidates {
		ok := true
		for _, rule := range applicable {
			if !rule.permits(region) {
				ok = false
				break
			}
		}
		if ok {
			permitted = append(permitted, region)
		}
	}
	return permitted
}

// applicableRules selects active rules matching the jurisdiction and
// classification, sorted by ascending priority. Lower priority wins ties on
// which rule a violation is attributed to.
func applicableRules(rules []Rule, jurisdiction id.Jurisdiction, classification id.DataClassification) []Rule {
	var out []Rule
	for _, rule := range rules {
		if rule.Applies(jurisdiction, classification) {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
