// Package store holds the client-side state for SKOUT: search, saved
// contacts, templates, session and connectivity.
//
// Search stage graph:
//
//	idle ──► discovering ──► extracting ──► normalizing ──► complete
//	              │               │               │
//	              └───────────────┴───────────────┴──► error
//
// discovering, extracting and normalizing may also jump straight to
// complete when the request returns before the cosmetic timer catches up.
// Reset returns to idle from any stage.
package store

import "fmt"

// Stage is one step of the search progress indicator.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageDiscovering Stage = "discovering"
	StageExtracting  Stage = "extracting"
	StageNormalizing Stage = "normalizing"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// validStageTransitions lists every allowed (from → to) pair, excluding
// reset which is always allowed.
var validStageTransitions = map[Stage][]Stage{
	StageIdle:        {StageDiscovering},
	StageDiscovering: {StageExtracting, StageComplete, StageError},
	StageExtracting:  {StageNormalizing, StageComplete, StageError},
	StageNormalizing: {StageComplete, StageError},
	StageComplete:    {StageDiscovering},
	StageError:       {StageDiscovering},
}

// ParseStage converts a raw string to a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageIdle, StageDiscovering, StageExtracting, StageNormalizing, StageComplete, StageError:
		return st, nil
	}
	return "", fmt.Errorf("unknown search stage %q", s)
}

// IsStageTransitionAllowed reports whether from → to is permitted. Moving to
// idle is always allowed.
func IsStageTransitionAllowed(from, to Stage) bool {
	if to == StageIdle {
		return true
	}
	for _, s := range validStageTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsInFlight is true while a request is outstanding.
func IsInFlight(s Stage) bool {
	return s == StageDiscovering || s == StageExtracting || s == StageNormalizing
}

// Label is the user-facing progress text for a stage.
func (s Stage) Label() string {
	switch s {
	case StageDiscovering:
		return "Finding the athletics staff directory…"
	case StageExtracting:
		return "Reading coach contact details…"
	case StageNormalizing:
		return "Cleaning up results…"
	case StageComplete:
		return "Done"
	case StageError:
		return "Search failed"
	default:
		return ""
	}
}
