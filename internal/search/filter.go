// Package search talks to the SKOUT search API and post-processes its results.
package search

import "github.com/DavidOgunsola17/CoachResearchAgent/internal/model"

// FilterReachable drops every profile that has neither an email nor a phone
// number. The input slice is not modified.
func FilterReachable(coaches []model.CoachProfile) []model.CoachProfile {
	out := make([]model.CoachProfile, 0, len(coaches))
	for _, c := range coaches {
		if !c.Reachable() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Dedupe keeps the first occurrence of each (name, school, position) key,
// preserving order.
func Dedupe(coaches []model.CoachProfile) []model.CoachProfile {
	seen := make(map[string]struct{}, len(coaches))
	out := make([]model.CoachProfile, 0, len(coaches))
	for _, c := range coaches {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Clean applies the client post-filter, de-duplication and logo fallback.
func Clean(coaches []model.CoachProfile) []model.CoachProfile {
	out := Dedupe(FilterReachable(coaches))
	for i := range out {
		out[i] = out[i].WithLogoFallback()
	}
	return out
}
