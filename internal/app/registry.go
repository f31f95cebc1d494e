// Package app wires the engine's packages into one running process: a
// Registry of table actors, a websocket Handler that dispatches parsed
// client intents into the right table's actor, the auto-dealer that
// keeps hands coming, and the glue that binds each table's ActionTimer
// to the shared Broadcaster.
package app

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bombpot/internal/broadcast"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/orchestrator"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/timer"
)

// TableService bundles one table's actor with the per-table action
// timer driving it. Each table runs at most one countdown at a time, so
// each gets its own ActionTimer; the Registry is what lets many tables
// run concurrently.
type TableService struct {
	Actor *orchestrator.TableActor
	Timer *timer.ActionTimer
}

// Registry owns every table actor in the process and the shared
// infrastructure (event store, connection-aware broadcaster) they report
// through.
type Registry struct {
	Store       *eventstore.Store
	Broadcaster *broadcast.Broadcaster
	Clock       quartz.Clock
	Logger      *log.Logger

	mu     sync.RWMutex
	tables map[pokertable.TableID]*TableService
}

// NewRegistry creates an empty registry. clock drives every table's
// ActionTimer; pass quartz.NewReal() in production and a quartz.Mock in
// tests.
func NewRegistry(store *eventstore.Store, broadcaster *broadcast.Broadcaster, clock quartz.Clock, logger *log.Logger) *Registry {
	return &Registry{
		Store:       store,
		Broadcaster: broadcaster,
		Clock:       clock,
		Logger:      logger,
		tables:      make(map[pokertable.TableID]*TableService),
	}
}

// CreateTable registers a new table actor for table and returns its
// TableService. table must not already be registered.
func (r *Registry) CreateTable(table *pokertable.Table) *TableService {
	r.mu.Lock()
	defer r.mu.Unlock()

	tableLogger := r.Logger.WithPrefix(fmt.Sprintf("table/%s", table.ID))

	// The ActionTimer's expiry callback needs the actor it will end up
	// driving, but the actor's constructor needs the timer. actorRef lets
	// the closure capture a pointer that NewTableActor fills in a few
	// lines below, before any hand (and so any real timer tick) can fire.
	var actorRef *orchestrator.TableActor
	bridge := broadcast.NewTimerBridge(table.ID, r.Broadcaster, tableLogger, func(timeBankConsumed int) error {
		return actorRef.ForceTimeoutFold(timeBankConsumed)
	})
	at := timer.New(r.Clock, bridge)
	dealer := &autoDealer{Notifier: r.Broadcaster, registry: r, tableID: table.ID, cfg: table.BombPot}
	actorRef = orchestrator.NewTableActor(table, r.Store, dealer, at)

	svc := &TableService{Actor: actorRef, Timer: at}
	r.tables[table.ID] = svc
	return svc
}

// Lookup returns the TableService for tableID, if registered.
func (r *Registry) Lookup(tableID pokertable.TableID) (*TableService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.tables[tableID]
	return svc, ok
}

// Tables returns every registered table id.
func (r *Registry) Tables() []pokertable.TableID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pokertable.TableID, 0, len(r.tables))
	for id := range r.tables {
		out = append(out, id)
	}
	return out
}
