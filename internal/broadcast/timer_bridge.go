package broadcast

import (
	"github.com/charmbracelet/log"

	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/transport"
)

// TimerBridge adapts one table's timer.Callbacks into broadcasts on that
// table's connections, and folds a player out once their clock (and any
// time bank) runs out. Each table actor owns its own ActionTimer, so
// each gets its own bridge bound to that table's id.
type TimerBridge struct {
	tableID          pokertable.TableID
	broadcaster      *Broadcaster
	logger           *log.Logger
	forceTimeoutFold func(timeBankConsumedSeconds int) error
}

// NewTimerBridge returns a timer.Callbacks implementation for tableID.
// forceTimeoutFold should call the table's actor's ForceTimeoutFold.
func NewTimerBridge(tableID pokertable.TableID, broadcaster *Broadcaster, logger *log.Logger, forceTimeoutFold func(timeBankConsumedSeconds int) error) *TimerBridge {
	return &TimerBridge{
		tableID:          tableID,
		broadcaster:      broadcaster,
		logger:           logger.WithPrefix("timer"),
		forceTimeoutFold: forceTimeoutFold,
	}
}

type timerTickPayload struct {
	PlayerID          string `json:"playerId"`
	RemainingSeconds  int    `json:"remainingSeconds"`
	InTimeBank        bool   `json:"inTimeBank"`
	TimeBankRemaining int    `json:"timeBankRemaining"`
}

func (t *TimerBridge) OnTick(playerID string, remainingSeconds int, inTimeBank bool, timeBankRemaining int) {
	t.broadcaster.broadcastAll(t.tableID, transport.TimerTick, timerTickPayload{
		PlayerID:          playerID,
		RemainingSeconds:  remainingSeconds,
		InTimeBank:        inTimeBank,
		TimeBankRemaining: timeBankRemaining,
	})
}

type timerWarningPayload struct {
	PlayerID         string `json:"playerId"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

func (t *TimerBridge) OnWarning(playerID string, remainingSeconds int) {
	t.broadcaster.broadcastAll(t.tableID, transport.TimerWarning, timerWarningPayload{
		PlayerID:         playerID,
		RemainingSeconds: remainingSeconds,
	})
}

type timeBankActivatedPayload struct {
	PlayerID          string `json:"playerId"`
	TimeBankRemaining int    `json:"timeBankRemaining"`
}

func (t *TimerBridge) OnTimeBankActivated(playerID string, timeBankRemaining int) {
	t.broadcaster.broadcastAll(t.tableID, transport.TimeBankActivated, timeBankActivatedPayload{
		PlayerID:          playerID,
		TimeBankRemaining: timeBankRemaining,
	})
}

// OnExpired announces the timeout and forces the affected player to
// fold. The fold happens after the broadcast so viewers see the clock
// run out before the table state updates.
func (t *TimerBridge) OnExpired(playerID string, timeBankConsumed int) {
	t.broadcaster.broadcastAll(t.tableID, transport.TimerExpired, transport.PlayerEventData{PlayerID: playerID})
	if err := t.forceTimeoutFold(timeBankConsumed); err != nil {
		t.logger.Error("timeout fold failed", "table", t.tableID, "player", playerID, "error", err)
	}
}
