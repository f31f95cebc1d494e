package broadcast

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/connmgr"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/sanitize"
	"github.com/lox/bombpot/internal/transport"
)

type recordingSender struct {
	mu   sync.Mutex
	fail error
	msgs []*transport.Message
}

func (r *recordingSender) Send(msg *transport.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingSender) received() []*transport.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*transport.Message{}, r.msgs...)
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newBroadcastTable() *pokertable.Table {
	table := pokertable.NewTable("t1", "Main", 100)
	p1 := pokertable.NewPlayer("p1", "Alice", 1, 10000)
	p2 := pokertable.NewPlayer("p2", "Bob", 2, 10000)
	table.Seat(1, p1)
	table.Seat(2, p2)

	hand := pokertable.NewHand("hand-1", 1, []pokertable.PlayerID{"p1", "p2"}, 1)
	hand.Round = pokertable.NewBettingRound(table.BigBlind)
	p1.HoleCards = []cards.Card{cards.NewCard(cards.Spades, cards.Ace), cards.NewCard(cards.Hearts, cards.Ace)}
	p2.HoleCards = []cards.Card{cards.NewCard(cards.Spades, cards.King), cards.NewCard(cards.Hearts, cards.King)}
	table.CurrentHand = hand
	return table
}

// wire up two seated players and a spectator, each with its own sender.
func newBroadcastFixture(t *testing.T) (*Broadcaster, *pokertable.Table, map[connmgr.ConnectionID]*recordingSender) {
	t.Helper()
	conns := connmgr.New()
	conns.AddPlayer("c1", "t1", "p1")
	conns.AddPlayer("c2", "t1", "p2")
	conns.AddSpectator("c3", "t1")

	b := New(conns, testLogger())
	senders := map[connmgr.ConnectionID]*recordingSender{
		"c1": {}, "c2": {}, "c3": {},
	}
	for id, s := range senders {
		b.Register(id, s)
	}
	return b, newBroadcastTable(), senders
}

func holeCardsForViewer(t *testing.T, msg *transport.Message, playerID pokertable.PlayerID) []cards.Card {
	t.Helper()
	var state sanitize.TableGameState
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	for _, pv := range state.Players {
		if pv.PlayerID == playerID {
			return pv.HoleCards
		}
	}
	t.Fatalf("player %s not in projection", playerID)
	return nil
}

func TestGameStateUpdatedSanitizesPerViewer(t *testing.T) {
	b, table, senders := newBroadcastFixture(t)

	b.GameStateUpdated(table)

	for id, s := range senders {
		msgs := s.received()
		require.Len(t, msgs, 1, "connection %s", id)
		assert.Equal(t, transport.GameStateUpdated, msgs[0].Type)
		assert.False(t, msgs[0].Timestamp.IsZero(), "broadcasts carry a server timestamp")
	}

	p1Msg := senders["c1"].received()[0]
	assert.Len(t, holeCardsForViewer(t, p1Msg, "p1"), 2, "viewer sees own cards")
	assert.Empty(t, holeCardsForViewer(t, p1Msg, "p2"), "viewer never sees a live opponent's cards")

	specMsg := senders["c3"].received()[0]
	assert.Empty(t, holeCardsForViewer(t, specMsg, "p1"), "spectators see no hole cards at all")
	assert.Empty(t, holeCardsForViewer(t, specMsg, "p2"))
}

func TestHandStartedDeliversOwnHoleCardsOnly(t *testing.T) {
	b, table, senders := newBroadcastFixture(t)
	deal := map[pokertable.PlayerID][]cards.Card{
		"p1": table.PlayerBySeat(1).HoleCards,
		"p2": table.PlayerBySeat(2).HoleCards,
	}

	b.HandStarted(table, deal)

	var p1Payload handStartedPayload
	require.NoError(t, json.Unmarshal(senders["c1"].received()[0].Data, &p1Payload))
	assert.Equal(t, deal["p1"], p1Payload.YourHoleCards)

	var specPayload handStartedPayload
	require.NoError(t, json.Unmarshal(senders["c3"].received()[0].Data, &specPayload))
	assert.Empty(t, specPayload.YourHoleCards, "spectators receive state only")
}

func TestFanOutContinuesPastAFailingConnection(t *testing.T) {
	b, table, senders := newBroadcastFixture(t)
	senders["c1"].fail = errors.New("socket gone")

	b.ActionExecuted(table.ID, "p1", pokertable.Check, 0, "p2", false, false)

	assert.Empty(t, senders["c1"].received())
	assert.Len(t, senders["c2"].received(), 1, "failure on one connection must not stop the rest")
	assert.Len(t, senders["c3"].received(), 1)
}

func TestSendToUnknownConnectionReturnsErrNoSender(t *testing.T) {
	b, _, _ := newBroadcastFixture(t)
	err := b.SendTo("nope", transport.Error, transport.ErrorData{Code: "x"})
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	b, table, senders := newBroadcastFixture(t)
	b.Unregister("c2")

	b.TimerStarted(table.ID, "p1", 30, 60)

	assert.Len(t, senders["c1"].received(), 1)
	assert.Empty(t, senders["c2"].received())
}
