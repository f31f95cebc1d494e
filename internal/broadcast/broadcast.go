// Package broadcast implements orchestrator.Notifier and timer.Callbacks
// by projecting a table's state through sanitize per viewer and fanning
// the result out to every connection connmgr has registered for that
// table. Each connection's send runs independently so one slow or dead
// socket never delays the rest.
package broadcast

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/connmgr"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/sanitize"
	"github.com/lox/bombpot/internal/transport"
)

// ErrNoSender is returned by SendTo when no connection is registered
// under the given id (already disconnected, or never registered).
var ErrNoSender = errors.New("broadcast: no sender registered for connection")

// Sender delivers one message to one connection. *transport.Connection
// implements this; tests substitute a recording fake.
type Sender interface {
	Send(msg *transport.Message) error
}

// latencyWarnThreshold is the per-broadcast budget called out by the
// concurrency model: a full fan-out should clear comfortably inside a
// tick period.
const latencyWarnThreshold = 100 * time.Millisecond

// Broadcaster fans out sanitized table state and targeted notifications
// to every connection connmgr knows about for a table.
type Broadcaster struct {
	conns  *connmgr.Manager
	logger *log.Logger

	mu      sync.RWMutex
	senders map[connmgr.ConnectionID]Sender
}

// New creates a Broadcaster that resolves table membership through
// conns and logs delivery failures and latency warnings through logger.
func New(conns *connmgr.Manager, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		conns:   conns,
		logger:  logger.WithPrefix("broadcast"),
		senders: make(map[connmgr.ConnectionID]Sender),
	}
}

// Register associates id with the Sender that can deliver to it. The
// transport server calls this for every accepted connection.
func (b *Broadcaster) Register(id connmgr.ConnectionID, s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.senders[id] = s
}

// Unregister drops id, e.g. once its connection has disconnected.
func (b *Broadcaster) Unregister(id connmgr.ConnectionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.senders, id)
}

// SendTo delivers one message to a single connection: used for responses
// that are reported to the caller only (validation errors, available
// actions, timer-state projections) rather than fanned out to the table.
func (b *Broadcaster) SendTo(connID connmgr.ConnectionID, msgType transport.MessageType, payload interface{}) error {
	sender, ok := b.senderFor(connID)
	if !ok {
		return ErrNoSender
	}
	msg, err := transport.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return sender.Send(msg)
}

func (b *Broadcaster) senderFor(id connmgr.ConnectionID) (Sender, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.senders[id]
	return s, ok
}

// tableConns returns every connection registered for tableID, split
// into seated players (with their player id) and bare spectator ids.
func (b *Broadcaster) tableConns(tableID pokertable.TableID) (map[connmgr.ConnectionID]pokertable.PlayerID, []connmgr.ConnectionID) {
	return b.conns.PlayerConnections(tableID), b.conns.SpectatorConnections(tableID)
}

func (b *Broadcaster) allConnIDs(tableID pokertable.TableID) []connmgr.ConnectionID {
	players, spectators := b.tableConns(tableID)
	ids := make([]connmgr.ConnectionID, 0, len(players)+len(spectators))
	for id := range players {
		ids = append(ids, id)
	}
	return append(ids, spectators...)
}

// fanOut delivers build(connID) to every id concurrently. A connection
// with no registered Sender, or whose build returns a nil message, is
// skipped. Send failures are logged, never returned: one dead socket
// must never stop delivery to the rest of the table.
func (b *Broadcaster) fanOut(ids []connmgr.ConnectionID, build func(connmgr.ConnectionID) (*transport.Message, error)) {
	start := time.Now()
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			sender, ok := b.senderFor(id)
			if !ok {
				return nil
			}
			msg, err := build(id)
			if err != nil {
				b.logger.Warn("failed to build message", "connection", id, "error", err)
				return nil
			}
			if msg == nil {
				return nil
			}
			if err := sender.Send(msg); err != nil {
				b.logger.Warn("send failed", "connection", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	if elapsed := time.Since(start); elapsed > latencyWarnThreshold {
		b.logger.Warn("broadcast exceeded latency target", "elapsed", elapsed, "fanout", len(ids))
	}
}

func (b *Broadcaster) broadcastAll(tableID pokertable.TableID, msgType transport.MessageType, payload interface{}) {
	b.fanOut(b.allConnIDs(tableID), func(connmgr.ConnectionID) (*transport.Message, error) {
		return transport.NewMessage(msgType, payload)
	})
}

// GameStateUpdated sends every viewer (player or spectator) their own
// sanitized projection of table.
func (b *Broadcaster) GameStateUpdated(table *pokertable.Table) {
	players, spectators := b.tableConns(table.ID)
	ids := make([]connmgr.ConnectionID, 0, len(players)+len(spectators))
	for id := range players {
		ids = append(ids, id)
	}
	spectatorSet := make(map[connmgr.ConnectionID]bool, len(spectators))
	for _, id := range spectators {
		spectatorSet[id] = true
		ids = append(ids, id)
	}

	b.fanOut(ids, func(id connmgr.ConnectionID) (*transport.Message, error) {
		var state sanitize.TableGameState
		if spectatorSet[id] {
			state = sanitize.ForSpectator(table)
		} else {
			state = sanitize.ForPlayer(table, players[id])
		}
		return transport.NewMessage(transport.GameStateUpdated, state)
	})
}

type handStartedPayload struct {
	GameState     sanitize.TableGameState `json:"gameState"`
	YourHoleCards []cards.Card            `json:"yourHoleCards,omitempty"`
}

// HandStarted sends each player the new deal's state plus their own
// hole cards, and spectators the state alone.
func (b *Broadcaster) HandStarted(table *pokertable.Table, holeCards map[pokertable.PlayerID][]cards.Card) {
	players, spectators := b.tableConns(table.ID)
	ids := make([]connmgr.ConnectionID, 0, len(players)+len(spectators))
	for id := range players {
		ids = append(ids, id)
	}
	spectatorSet := make(map[connmgr.ConnectionID]bool, len(spectators))
	for _, id := range spectators {
		spectatorSet[id] = true
		ids = append(ids, id)
	}

	b.fanOut(ids, func(id connmgr.ConnectionID) (*transport.Message, error) {
		if spectatorSet[id] {
			return transport.NewMessage(transport.HandStarted, handStartedPayload{GameState: sanitize.ForSpectator(table)})
		}
		playerID := players[id]
		return transport.NewMessage(transport.HandStarted, handStartedPayload{
			GameState:     sanitize.ForPlayer(table, playerID),
			YourHoleCards: holeCards[playerID],
		})
	})
}

type actionExecutedPayload struct {
	PlayerID             pokertable.PlayerID `json:"playerId"`
	Type                 string              `json:"type"`
	Amount               int64               `json:"amount"`
	NextPlayerID         pokertable.PlayerID `json:"nextPlayerId,omitempty"`
	BettingRoundComplete bool                `json:"bettingRoundComplete"`
	HandComplete         bool                `json:"handComplete"`
}

// ActionExecuted echoes one applied action to the whole table.
func (b *Broadcaster) ActionExecuted(tableID pokertable.TableID, playerID pokertable.PlayerID, actionType pokertable.ActionType, amount int64, nextPlayerID pokertable.PlayerID, bettingRoundComplete, handComplete bool) {
	b.broadcastAll(tableID, transport.ActionExecuted, actionExecutedPayload{
		PlayerID:             playerID,
		Type:                 actionType.String(),
		Amount:               amount,
		NextPlayerID:         nextPlayerID,
		BettingRoundComplete: bettingRoundComplete,
		HandComplete:         handComplete,
	})
}

type winnerPayload struct {
	PlayerID    pokertable.PlayerID `json:"playerId"`
	Amount      int64               `json:"amount"`
	ShownCards  []cards.Card        `json:"shownCards,omitempty"`
	Description string              `json:"handDescription,omitempty"`
}

type handCompletedPayload struct {
	TableID    pokertable.TableID `json:"tableId"`
	HandNumber int                `json:"handNumber"`
	Winners    []winnerPayload    `json:"winners"`
	FinalPot   int64              `json:"finalPot"`
}

// HandCompleted announces a settled hand's winners and pot size. Winner
// amounts are net results (awarded chips less the winner's own
// contribution), matching what the player actually gained. Cards and
// hand descriptions accompany winners who showed; a fold-out winner
// carries neither.
func (b *Broadcaster) HandCompleted(table *pokertable.Table, summary eventstore.HandCompletedData) {
	winners := make([]winnerPayload, 0, len(summary.WinnerIDs))
	for _, id := range summary.WinnerIDs {
		winners = append(winners, winnerPayload{
			PlayerID:    id,
			Amount:      summary.PlayerResults[id],
			ShownCards:  summary.ShownCards[id],
			Description: summary.HandDescriptions[id],
		})
	}
	b.broadcastAll(table.ID, transport.HandCompleted, handCompletedPayload{
		TableID:    table.ID,
		HandNumber: summary.HandNumber,
		Winners:    winners,
		FinalPot:   summary.TotalPot,
	})
}

type actionRequiredPayload struct {
	PlayerID       pokertable.PlayerID `json:"playerId"`
	TimeoutSeconds int                 `json:"timeoutSeconds"`
}

// ActionRequired announces whose turn it is and how long they have.
func (b *Broadcaster) ActionRequired(tableID pokertable.TableID, playerID pokertable.PlayerID, timeoutSeconds int) {
	b.broadcastAll(tableID, transport.ActionRequired, actionRequiredPayload{PlayerID: playerID, TimeoutSeconds: timeoutSeconds})
}

type timerStartedPayload struct {
	PlayerID          pokertable.PlayerID `json:"playerId"`
	TotalSeconds      int                 `json:"totalSeconds"`
	TimeBankAvailable int                 `json:"timeBankAvailable"`
}

// TimerStarted announces a fresh countdown for playerID.
func (b *Broadcaster) TimerStarted(tableID pokertable.TableID, playerID pokertable.PlayerID, totalSeconds int, timeBankAvailable int) {
	b.broadcastAll(tableID, transport.TimerStarted, timerStartedPayload{
		PlayerID:          playerID,
		TotalSeconds:      totalSeconds,
		TimeBankAvailable: timeBankAvailable,
	})
}

// TimerCancelled announces that playerID's countdown stopped because
// they acted before it expired.
func (b *Broadcaster) TimerCancelled(tableID pokertable.TableID, playerID pokertable.PlayerID) {
	b.broadcastAll(tableID, transport.TimerCancelled, transport.PlayerEventData{PlayerID: string(playerID)})
}
