package imports

// Outcome is the terminal result of one import mutation. It is one of
// Updated, Ambiguous or NotApplicable.
type Outcome interface {
	isOutcome()
}

// Updated carries the full new text of the file
type Updated struct {
	Text string
}

// Ambiguous lists the modules that export the requested identifier, in the
// order the analysis service returned them.
type Ambiguous struct {
	Candidates []string
}

// NotApplicable means there is nothing to do, e.g. the import already exists
type NotApplicable struct{}

func (Updated) isOutcome()       {}
func (Ambiguous) isOutcome()     {}
func (NotApplicable) isOutcome() {}

// Describe returns a short tag for logging
func Describe(o Outcome) string {
	switch o.(type) {
	case Updated:
		return "updated"
	case Ambiguous:
		return "ambiguous"
	case NotApplicable:
		return "not-applicable"
	default:
		return "unknown"
	}
}
