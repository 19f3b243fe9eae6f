package constants

// AnalysisState is the stage an invoice analysis reached.
type AnalysisState string

// Stable values (stored as-is in the invoices table).
const (
	StateNotStarted             AnalysisState = "NOT_STARTED"
	StateTextExtracted          AnalysisState = "TEXT_EXTRACTED"
	StateJurisdictionClassified AnalysisState = "JURISDICTION_CLASSIFIED"
	StateFieldsExtracted        AnalysisState = "FIELDS_EXTRACTED"
	StateAssembled              AnalysisState = "ASSEMBLED"      // terminal
	StateUnreadable             AnalysisState = "UNREADABLE"     // terminal, text below threshold
	StateKnownOverride          AnalysisState = "KNOWN_OVERRIDE" // terminal, override table hit
)

// IsTerminal reports whether no further transition is allowed from s.
func (s AnalysisState) IsTerminal() bool {
	switch s {
	case StateAssembled, StateUnreadable, StateKnownOverride:
		return true
	}
	return false
}

// next lists the single forward transition of each non-terminal state.
var next = map[AnalysisState]AnalysisState{
	StateNotStarted:             StateTextExtracted,
	StateTextExtracted:          StateJurisdictionClassified,
	StateJurisdictionClassified: StateFieldsExtracted,
	StateFieldsExtracted:        StateAssembled,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to AnalysisState) bool {
	if from == StateNotStarted && (to == StateUnreadable || to == StateKnownOverride) {
		return true
	}
	n, ok := next[from]
	return ok && n == to
}

// Valid reports whether s is one of the states above.
func (s AnalysisState) Valid() bool {
	if s.IsTerminal() || s == StateFieldsExtracted {
		return true
	}
	_, ok := next[s]
	return ok
}
