package models

import "fmt"

// Outcome is the result of a single plate appearance
type Outcome int

const (
	Strikeout Outcome = iota
	Walk
	Single
	Double
	Triple
	HomeRun
	Out
)

// AllOutcomes lists every plate appearance outcome in reporting order
var AllOutcomes = []Outcome{Strikeout, Walk, Single, Double, Triple, HomeRun, Out}

// String returns the scorebook abbreviation for the outcome
func (o Outcome) String() string {
	switch o {
	case Strikeout:
		return "K"
	case Walk:
		return "BB"
	case Single:
		return "1B"
	case Double:
		return "2B"
	case Triple:
		return "3B"
	case HomeRun:
		return "HR"
	case Out:
		return "OUT"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by its abbreviation so it can key JSON maps
func (o Outcome) MarshalText() ([]byte, error) {
	if o < Strikeout || o > Out {
		return nil, fmt.Errorf("unknown outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome abbreviation
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range AllOutcomes {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(text))
}

// Side identifies the home or away club
type Side int

const (
	Away Side = iota
	Home
)

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// MarshalText encodes the side as "home" or "away"
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes "home" or "away"
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "home":
		*s = Home
	case "away":
		*s = Away
	default:
		return fmt.Errorf("unknown side %q", string(text))
	}
	return nil
}

// Opponent returns the other club
func (s Side) Opponent() Side {
	if s == Home {
		return Away
	}
	return Home
}

// OutcomeCounts tallies plate appearance outcomes for one side
type OutcomeCounts map[Outcome]int

// Total returns the number of plate appearances recorded
func (oc OutcomeCounts) Total() int {
	total := 0
	for _, n := range oc {
		total += n
	}
	return total
}

// Rate returns the share of plate appearances that ended in the outcome
func (oc OutcomeCounts) Rate(o Outcome) float64 {
	total := oc.Total()
	if total == 0 {
		return 0
	}
	return float64(oc[o]) / float64(total)
}

// Add merges another tally into this one
func (oc OutcomeCounts) Add(other OutcomeCounts) {
	for o, n := range other {
		oc[o] += n
	}
}
