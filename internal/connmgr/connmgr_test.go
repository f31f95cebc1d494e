package connmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bombpot/internal/pokertable"
)

func TestAddPlayerThenLookup(t *testing.T) {
	m := New()
	m.AddPlayer("conn-1", "table-1", "player-1")

	info, ok := m.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, pokertable.TableID("table-1"), info.TableID)
	assert.Equal(t, pokertable.PlayerID("player-1"), info.PlayerID)
	assert.False(t, info.IsSpectator)

	players := m.PlayerConnections("table-1")
	assert.Equal(t, pokertable.PlayerID("player-1"), players["conn-1"])
}

func TestAddSpectatorThenLookup(t *testing.T) {
	m := New()
	m.AddSpectator("conn-2", "table-1")

	info, ok := m.Lookup("conn-2")
	require.True(t, ok)
	assert.True(t, info.IsSpectator)
	assert.Empty(t, info.PlayerID)

	specs := m.SpectatorConnections("table-1")
	assert.Contains(t, specs, ConnectionID("conn-2"))
}

func TestRemoveDropsFromBothIndexAndTableSet(t *testing.T) {
	m := New()
	m.AddPlayer("conn-1", "table-1", "player-1")

	info, ok := m.Remove("conn-1")
	require.True(t, ok)
	assert.Equal(t, pokertable.PlayerID("player-1"), info.PlayerID)

	_, ok = m.Lookup("conn-1")
	assert.False(t, ok)
	assert.Empty(t, m.PlayerConnections("table-1"))
}

func TestRemoveUnknownConnectionIsNoop(t *testing.T) {
	m := New()
	_, ok := m.Remove("never-registered")
	assert.False(t, ok)
}

func TestReaddingAConnectionMovesItToTheNewTable(t *testing.T) {
	m := New()
	m.AddPlayer("conn-1", "table-1", "player-1")
	m.AddPlayer("conn-1", "table-2", "player-1")

	assert.Empty(t, m.PlayerConnections("table-1"))
	assert.Equal(t, pokertable.PlayerID("player-1"), m.PlayerConnections("table-2")["conn-1"])
}

func TestDifferentTablesShardIndependently(t *testing.T) {
	m := New()
	for i := 0; i < numShards*2; i++ {
		tableID := pokertable.TableID(string(rune('a' + i)))
		connID := ConnectionID(string(rune('A' + i)))
		m.AddPlayer(connID, tableID, "player-1")
	}
	for i := 0; i < numShards*2; i++ {
		tableID := pokertable.TableID(string(rune('a' + i)))
		players := m.PlayerConnections(tableID)
		assert.Len(t, players, 1)
	}
}
