// Package connmgr is the single source of truth for which transport
// connection belongs to which table, as a seated player or a spectator:
// a first-class, sharded, concurrency-safe map rather than loose fields
// scattered across connection objects.
package connmgr

import (
	"hash/fnv"
	"sync"

	"github.com/lox/bombpot/internal/pokertable"
)

// ConnectionID identifies one transport connection.
type ConnectionID string

// Info is what the manager knows about a connection: its table, and
// either the player it acts for or that it is a spectator.
type Info struct {
	TableID     pokertable.TableID
	PlayerID    pokertable.PlayerID // empty when IsSpectator
	IsSpectator bool
}

const numShards = 16

type shard struct {
	mu         sync.RWMutex
	players    map[pokertable.TableID]map[ConnectionID]pokertable.PlayerID
	spectators map[pokertable.TableID]map[ConnectionID]struct{}
}

func newShard() *shard {
	return &shard{
		players:    make(map[pokertable.TableID]map[ConnectionID]pokertable.PlayerID),
		spectators: make(map[pokertable.TableID]map[ConnectionID]struct{}),
	}
}

// Manager maps connections to (table, player|spectator). The heavy
// per-table membership sets are sharded by table id so concurrent
// activity on different tables never contends on one lock; a small
// separate index supports O(1) lookup/removal by connection id alone.
type Manager struct {
	shards [numShards]*shard

	indexMu sync.RWMutex
	index   map[ConnectionID]Info
}

// New creates an empty connection manager.
func New() *Manager {
	m := &Manager{index: make(map[ConnectionID]Info)}
	for i := range m.shards {
		m.shards[i] = newShard()
	}
	return m
}

func (m *Manager) shardFor(tableID pokertable.TableID) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tableID))
	return m.shards[h.Sum32()%numShards]
}

// AddPlayer registers connID as acting for playerID at tableID. A
// connection already registered elsewhere is moved, not duplicated.
func (m *Manager) AddPlayer(connID ConnectionID, tableID pokertable.TableID, playerID pokertable.PlayerID) {
	m.Remove(connID)

	s := m.shardFor(tableID)
	s.mu.Lock()
	if s.players[tableID] == nil {
		s.players[tableID] = make(map[ConnectionID]pokertable.PlayerID)
	}
	s.players[tableID][connID] = playerID
	s.mu.Unlock()

	m.indexMu.Lock()
	m.index[connID] = Info{TableID: tableID, PlayerID: playerID}
	m.indexMu.Unlock()
}

// AddSpectator registers connID as a spectator at tableID. A connection
// already registered elsewhere is moved, not duplicated.
func (m *Manager) AddSpectator(connID ConnectionID, tableID pokertable.TableID) {
	m.Remove(connID)

	s := m.shardFor(tableID)
	s.mu.Lock()
	if s.spectators[tableID] == nil {
		s.spectators[tableID] = make(map[ConnectionID]struct{})
	}
	s.spectators[tableID][connID] = struct{}{}
	s.mu.Unlock()

	m.indexMu.Lock()
	m.index[connID] = Info{TableID: tableID, IsSpectator: true}
	m.indexMu.Unlock()
}

// Remove drops connID from whichever table it was registered at,
// returning its prior Info so the caller can broadcast a disconnect. ok
// is false if connID was never registered (or already removed).
func (m *Manager) Remove(connID ConnectionID) (Info, bool) {
	m.indexMu.Lock()
	info, ok := m.index[connID]
	delete(m.index, connID)
	m.indexMu.Unlock()
	if !ok {
		return Info{}, false
	}

	s := m.shardFor(info.TableID)
	s.mu.Lock()
	if info.IsSpectator {
		delete(s.spectators[info.TableID], connID)
	} else {
		delete(s.players[info.TableID], connID)
	}
	s.mu.Unlock()

	return info, true
}

// Lookup returns what the manager knows about connID.
func (m *Manager) Lookup(connID ConnectionID) (Info, bool) {
	m.indexMu.RLock()
	defer m.indexMu.RUnlock()
	info, ok := m.index[connID]
	return info, ok
}

// PlayerConnections returns every (connection, player) pair currently
// registered at tableID.
func (m *Manager) PlayerConnections(tableID pokertable.TableID) map[ConnectionID]pokertable.PlayerID {
	s := m.shardFor(tableID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ConnectionID]pokertable.PlayerID, len(s.players[tableID]))
	for id, playerID := range s.players[tableID] {
		out[id] = playerID
	}
	return out
}

// SpectatorConnections returns every spectator connection id at tableID.
func (m *Manager) SpectatorConnections(tableID pokertable.TableID) []ConnectionID {
	s := m.shardFor(tableID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConnectionID, 0, len(s.spectators[tableID]))
	for id := range s.spectators[tableID] {
		out = append(out, id)
	}
	return out
}
