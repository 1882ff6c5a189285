package contracts

import "time"

// FactorKind enumerates the supported factors. The set is closed on purpose:
// every factor is enumerable and exhaustively testable, instead of an
// open-ended registry keyed by string.
type FactorKind int

const (
	// FactorSentL1 is the sentiment of the immediately preceding observed
	// row for the ticker. The first observation per ticker is missing.
	FactorSentL1 FactorKind = iota

	// FactorSentShock is the sentiment minus the mean of the previous W
	// observations strictly before the date. Fewer than W prior
	// observations yields missing; the window is never padded.
	FactorSentShock
)

// String returns the factor's wire name
func (k FactorKind) String() string {
	switch k {
	case FactorSentL1:
		return "SENT_L1"
	case FactorSentShock:
		return "SENT_SHOCK"
	default:
		return "UNKNOWN"
	}
}

// ParseFactorKind resolves a configured factor name.
// An unknown name is a ConfigurationError.
func ParseFactorKind(name string) (FactorKind, error) {
	switch name {
	case "SENT_L1":
		return FactorSentL1, nil
	case "SENT_SHOCK":
		return FactorSentShock, nil
	default:
		return 0, ConfigurationError{Field: "factor.name", Message: "unknown factor " + name}
	}
}

// FactorSpec is a factor kind plus its parameters
type FactorSpec struct {
	Kind   FactorKind
	Window int // SENT_SHOCK lookback, ignored by SENT_L1
}

// FactorRecord is one derived factor value. It is computed only from the
// ticker's sentiment history up to and including Date; using later
// observations is a look-ahead violation.
type FactorRecord struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`
	Factor string    `json:"factor"`
	Value  NullFloat `json:"value"`
}
