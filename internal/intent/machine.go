// Package intent implements the two-step utterance grammar: an action and
// an object, in either order, resolve to a single actuation command.
package intent

import "kwhmi/agent/internal/keyword"

// State is the grammar position.
type State int

const (
	Idle State = iota
	AwaitingObject
	AwaitingAction
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case AwaitingObject:
		return "AWAITING_OBJECT"
	case AwaitingAction:
		return "AWAITING_ACTION"
	}
	return "INVALID"
}

// Accumulator gathers flags across the two halves of an utterance.
type Accumulator struct {
	set keyword.Set
}

func (a *Accumulator) Add(s keyword.Set) { a.set |= s }
func (a *Accumulator) Clear()            { a.set = 0 }
func (a Accumulator) Value() keyword.Set { return a.set }
func (a Accumulator) IsEmpty() bool      { return a.set == 0 }

// Outcome describes what a single Step or Reset did.
type Outcome struct {
	From  State
	To    State
	Input keyword.Set

	// Intent is the accumulator value resolution was attempted on, or the
	// value discarded by a Reset. Zero after a mismatch.
	Intent keyword.Set

	Ignored  bool // Idle input with neither an action nor an object
	Mismatch bool // wrong half of the utterance, intent discarded
	Reset    bool // forced back to Idle by the unknown supervisor
	Resolved bool // a resolution attempt happened
	Dispatch bool // Command is valid and should be sent
	Command  Command
}

// Changed reports whether the step moved between states.
func (o Outcome) Changed() bool { return o.From != o.To }

// Machine is the grammar. It is owned by a single goroutine.
type Machine struct {
	vocab *keyword.Vocabulary
	state State
	acc   Accumulator
}

// NewMachine starts in Idle with an empty accumulator.
func NewMachine(v *keyword.Vocabulary) *Machine {
	if v == nil {
		v = keyword.Default()
	}
	return &Machine{vocab: v}
}

func (m *Machine) State() State                    { return m.state }
func (m *Machine) Intent() keyword.Set             { return m.acc.Value() }
func (m *Machine) Vocabulary() *keyword.Vocabulary { return m.vocab }

// Step feeds one debounce-confirmed, non-UNKNOWN set. Every return to Idle
// from an Awaiting state attempts resolution and clears the accumulator.
func (m *Machine) Step(s keyword.Set) Outcome {
	out := Outcome{From: m.state, Input: s}
	objects := m.vocab.Objects()

	switch m.state {
	case Idle:
		switch {
		case s.Any(keyword.Actions):
			m.acc.Add(s)
			m.state = AwaitingObject
		case s.Any(objects):
			m.acc.Add(s)
			m.state = AwaitingAction
		default:
			out.Ignored = true
		}

	case AwaitingObject:
		if s.Any(objects) {
			m.acc.Add(s)
		} else {
			out.Mismatch = true
			m.acc.Clear()
		}
		m.state = Idle
		m.resolve(&out)

	case AwaitingAction:
		if s.Any(keyword.Actions) {
			m.acc.Add(s)
		} else {
			out.Mismatch = true
			m.acc.Clear()
		}
		m.state = Idle
		m.resolve(&out)

	default:
		// Unreachable through the API; recover to a known state.
		m.acc.Clear()
		m.state = Idle
	}

	out.To = m.state
	return out
}

func (m *Machine) resolve(out *Outcome) {
	out.Resolved = true
	out.Intent = m.acc.Value()
	out.Command, out.Dispatch = Resolve(m.vocab, out.Intent)
	m.acc.Clear()
}
