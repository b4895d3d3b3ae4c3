package workout

import "fmt"

type State int

const (
	StateIdle State = iota
	StateLoading
	StateActive
	StateAdvancing
	StateFinishing
	StateDiscarding
	StateTerminated
	StateInvalid
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateLoading:    "loading",
	StateActive:     "active",
	StateAdvancing:  "advancing",
	StateFinishing:  "finishing",
	StateDiscarding: "discarding",
	StateTerminated: "terminated",
	StateInvalid:    "invalid",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %q", text)
}

// busy states wait for a backend answer that decides the next state
func (s State) busy() bool {
	return s == StateAdvancing || s == StateFinishing || s == StateDiscarding
}

// Outcome tells how a terminated session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeCompleted: the last exercise was saved.
	OutcomeCompleted
	// OutcomeFinished: finished early by the user.
	OutcomeFinished
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFinished:
		return "finished"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for _, outcome := range []Outcome{OutcomeNone, OutcomeCompleted, OutcomeFinished, OutcomeDiscarded} {
		if outcome.String() == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown session outcome: %q", text)
}
