package harvest

// OutcomeKind discriminates the closed set of fetch results.
type OutcomeKind uint8

// Every fetch attempt ends in exactly one of these.
const (
	// OutcomeSuccess carries the fetched records.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeOversize signals the partition is too large to fetch in one
	// request (transport timeout or upstream gateway timeout). It is a
	// control signal for the controller to subdivide, not an error.
	OutcomeOversize
	// OutcomeHardFailure is a terminal failure for this partition only.
	OutcomeHardFailure
)

// String returns the kind as a metric/log label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeOversize:
		return "oversize"
	case OutcomeHardFailure:
		return "hard_failure"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one bounded fetch. Records is populated
// only for OutcomeSuccess, Err only for OutcomeHardFailure.
type Outcome struct {
	Kind    OutcomeKind
	Records []Record
	Err     error
}

// Success wraps fetched records in a successful outcome.
func Success(records []Record) Outcome {
	return Outcome{Kind: OutcomeSuccess, Records: records}
}

// Oversize builds the split-trigger outcome.
func Oversize() Outcome {
	return Outcome{Kind: OutcomeOversize}
}

// HardFailure builds a terminal outcome for one partition.
func HardFailure(err error) Outcome {
	return Outcome{Kind: OutcomeHardFailure, Err: err}
}
