package pokertable

import (
	"fmt"
	"time"
)

// Phase is a step in a hand's lifecycle.
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	Complete
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Trigger names the event that requests a phase transition.
type Trigger int

const (
	StartHand Trigger = iota
	BettingComplete
	AllFolded
	ShowdownComplete
	ForceEnd
)

func (t Trigger) String() string {
	switch t {
	case StartHand:
		return "StartHand"
	case BettingComplete:
		return "BettingComplete"
	case AllFolded:
		return "AllFolded"
	case ShowdownComplete:
		return "ShowdownComplete"
	case ForceEnd:
		return "ForceEnd"
	default:
		return "unknown"
	}
}

type edge struct {
	from    Phase
	trigger Trigger
}

// edges is the static, exhaustive set of legal transitions. Any (phase,
// trigger) pair absent from this map is rejected.
var edges = map[edge]Phase{
	{Waiting, StartHand}: Preflop,

	{Preflop, BettingComplete}: Flop,
	{Flop, BettingComplete}:    Turn,
	{Turn, BettingComplete}:    River,
	{River, BettingComplete}:   Showdown,

	{Preflop, AllFolded}: Complete,
	{Flop, AllFolded}:    Complete,
	{Turn, AllFolded}:    Complete,
	{River, AllFolded}:   Complete,

	{Showdown, ShowdownComplete}: Complete,

	{Waiting, ForceEnd}:  Complete,
	{Preflop, ForceEnd}:  Complete,
	{Flop, ForceEnd}:     Complete,
	{Turn, ForceEnd}:     Complete,
	{River, ForceEnd}:    Complete,
	{Showdown, ForceEnd}: Complete,
}

// InvalidTransitionError is returned when a trigger has no edge from the
// current phase.
type InvalidTransitionError struct {
	From    Phase
	Trigger Trigger
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("pokertable: no transition for trigger %s from phase %s", e.Trigger, e.From)
}

// Hooks lets a caller (the orchestrator) run phase-entry and phase-exit
// logic, such as resetting round-scoped betting state or setting
// CompletedAt, as part of a transition.
type Hooks interface {
	OnExit(from Phase, trigger Trigger) error
	OnEnter(to Phase, trigger Trigger) error
}

// HandStateTransition records one successful step through the machine.
type HandStateTransition struct {
	From    Phase
	To      Phase
	Trigger Trigger
	At      time.Time
}

// HandStateMachine enforces the legal phase transitions for a single hand
// and records its history.
type HandStateMachine struct {
	phase   Phase
	history []HandStateTransition
}

// NewHandStateMachine creates a machine starting in Waiting.
func NewHandStateMachine() *HandStateMachine {
	return &HandStateMachine{phase: Waiting}
}

// Phase returns the current phase.
func (m *HandStateMachine) Phase() Phase {
	return m.phase
}

// History returns the recorded transitions in order.
func (m *HandStateMachine) History() []HandStateTransition {
	return m.history
}

// Fire attempts trigger from the current phase. On success it runs the
// exit hook for the current phase, moves to the new phase, runs the entry
// hook, and appends a history record. An error from either hook aborts the
// transition and leaves the machine in its prior phase.
func (m *HandStateMachine) Fire(trigger Trigger, hooks Hooks) error {
	next, ok := edges[edge{m.phase, trigger}]
	if !ok {
		return &InvalidTransitionError{From: m.phase, Trigger: trigger}
	}

	from := m.phase
	if hooks != nil {
		if err := hooks.OnExit(from, trigger); err != nil {
			return err
		}
	}

	m.phase = next
	if hooks != nil {
		if err := hooks.OnEnter(next, trigger); err != nil {
			m.phase = from
			return err
		}
	}

	m.history = append(m.history, HandStateTransition{From: from, To: next, Trigger: trigger, At: time.Now()})
	return nil
}
