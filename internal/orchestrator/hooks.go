package orchestrator

import "github.com/lox/bombpot/internal/pokertable"

// stateHooks logs every phase transition; it performs no mutation and
// never fails, since the orchestrator's own mutation happens around the
// Fire call, not inside the hook.
type stateHooks struct {
	actor *TableActor
}

func (h *stateHooks) OnExit(from pokertable.Phase, trigger pokertable.Trigger) error {
	h.actor.logger.Debug("hand phase exit", "from", from, "trigger", trigger)
	return nil
}

func (h *stateHooks) OnEnter(to pokertable.Phase, trigger pokertable.Trigger) error {
	h.actor.logger.Debug("hand phase enter", "to", to, "trigger", trigger)
	return nil
}
