package app

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lox/bombpot/internal/connmgr"
	"github.com/lox/bombpot/internal/orchestrator"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/sanitize"
	"github.com/lox/bombpot/internal/transport"
)

// Handler implements transport.Handler, translating parsed client
// intents into calls on the right table's actor. It holds no game state
// itself; connmgr resolves a connection to a (table, player) pair and
// registry resolves a table id to its actor.
type Handler struct {
	conns    *connmgr.Manager
	registry *Registry
	logger   *log.Logger
}

// NewHandler creates a transport.Handler backed by conns and registry.
func NewHandler(conns *connmgr.Manager, registry *Registry, logger *log.Logger) *Handler {
	return &Handler{conns: conns, registry: registry, logger: logger.WithPrefix("handler")}
}

func (h *Handler) sendError(connID connmgr.ConnectionID, code, message string) {
	if err := h.registry.Broadcaster.SendTo(connID, transport.Error, transport.ErrorData{Code: code, Message: message}); err != nil {
		h.logger.Warn("failed to deliver error to caller", "connection", connID, "error", err)
	}
}

// errorCode maps the engine's error kinds onto a short wire code the
// client can branch on without parsing prose.
func errorCode(err error) string {
	var coreErr *orchestrator.CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind.String()
	}
	var validationErr *pokertable.ValidationError
	if errors.As(err, &validationErr) {
		return "validation-rejected"
	}
	return "error"
}

func (h *Handler) resolve(connID connmgr.ConnectionID) (connmgr.Info, *TableService, bool) {
	info, ok := h.conns.Lookup(connID)
	if !ok {
		h.sendError(connID, "not_joined", "join a table before acting")
		return connmgr.Info{}, nil, false
	}
	svc, ok := h.registry.Lookup(info.TableID)
	if !ok {
		h.sendError(connID, "unknown_table", "table no longer exists")
		return connmgr.Info{}, nil, false
	}
	return info, svc, true
}

// HandleJoinTable attaches connID to an already-seated player at
// tableId. Session/identity issuance and seat assignment happen
// elsewhere; this engine only maps a live connection onto a seat it
// already knows about.
func (h *Handler) HandleJoinTable(connID connmgr.ConnectionID, data transport.JoinTableData) {
	tableID := pokertable.TableID(data.TableID)
	svc, ok := h.registry.Lookup(tableID)
	if !ok {
		h.sendError(connID, "unknown_table", "no such table: "+data.TableID)
		return
	}
	playerID := pokertable.PlayerID(data.PlayerID)
	table := svc.Actor.Snapshot()
	if table.FindPlayer(playerID) == nil {
		h.sendError(connID, "unknown_player", "no such player at table: "+data.PlayerID)
		return
	}

	h.conns.AddPlayer(connID, tableID, playerID)
	h.broadcastToTable(tableID, transport.PlayerJoined, transport.PlayerEventData{PlayerID: data.PlayerID})
	h.registry.Broadcaster.GameStateUpdated(table)
}

// HandleJoinSpectator attaches connID to tableId with no acting rights.
func (h *Handler) HandleJoinSpectator(connID connmgr.ConnectionID, data transport.JoinSpectatorData) {
	tableID := pokertable.TableID(data.TableID)
	svc, ok := h.registry.Lookup(tableID)
	if !ok {
		h.sendError(connID, "unknown_table", "no such table: "+data.TableID)
		return
	}
	h.conns.AddSpectator(connID, tableID)
	h.broadcastToTable(tableID, transport.SpectatorJoined, transport.PlayerEventData{})
	table := svc.Actor.Snapshot()
	_ = h.registry.Broadcaster.SendTo(connID, transport.GameStateUpdated, sanitize.ForSpectator(table))
}

// HandleLeaveTable detaches connID from whatever table it was at,
// broadcasting the departure to whoever remains.
func (h *Handler) HandleLeaveTable(connID connmgr.ConnectionID) {
	h.disconnect(connID, transport.PlayerLeft, transport.SpectatorLeft)
}

// HandleDisconnect is called by the transport layer once a socket
// closes, whether the client sent LeaveTable first or simply dropped.
func (h *Handler) HandleDisconnect(connID connmgr.ConnectionID) {
	h.disconnect(connID, transport.PlayerDisconnected, transport.SpectatorLeft)
	h.registry.Broadcaster.Unregister(connID)
}

func (h *Handler) disconnect(connID connmgr.ConnectionID, playerMsg, spectatorMsg transport.MessageType) {
	info, ok := h.conns.Remove(connID)
	if !ok {
		return
	}
	if info.IsSpectator {
		h.broadcastToTable(info.TableID, spectatorMsg, transport.PlayerEventData{})
		return
	}
	if svc, ok := h.registry.Lookup(info.TableID); ok {
		// A departing player whose turn it is gets folded immediately
		// rather than making the table wait out their timer. The actor
		// revalidates turn order, so a stale read here just no-ops.
		table := svc.Actor.Snapshot()
		if hand := table.CurrentHand; hand != nil && hand.CurrentPlayerID == info.PlayerID {
			if err := svc.Actor.ExecutePlayerAction(info.PlayerID, pokertable.Fold, 0); err != nil {
				h.logger.Debug("disconnect fold skipped", "player", info.PlayerID, "error", err)
			}
		}
		h.registry.Broadcaster.GameStateUpdated(svc.Actor.Snapshot())
	}
	h.broadcastToTable(info.TableID, playerMsg, transport.PlayerEventData{PlayerID: string(info.PlayerID)})
}

func (h *Handler) broadcastToTable(tableID pokertable.TableID, msgType transport.MessageType, payload interface{}) {
	for connID := range h.conns.PlayerConnections(tableID) {
		_ = h.registry.Broadcaster.SendTo(connID, msgType, payload)
	}
	for _, connID := range h.conns.SpectatorConnections(tableID) {
		_ = h.registry.Broadcaster.SendTo(connID, msgType, payload)
	}
}

func (h *Handler) act(connID connmgr.ConnectionID, actionType pokertable.ActionType, amount int64) {
	info, svc, ok := h.resolve(connID)
	if !ok {
		return
	}
	if info.IsSpectator {
		h.sendError(connID, "spectator_cannot_act", "spectators cannot act")
		return
	}
	if err := svc.Actor.ExecutePlayerAction(info.PlayerID, actionType, amount); err != nil {
		h.sendError(connID, errorCode(err), err.Error())
	}
}

func (h *Handler) HandleFold(connID connmgr.ConnectionID)  { h.act(connID, pokertable.Fold, 0) }
func (h *Handler) HandleCheck(connID connmgr.ConnectionID) { h.act(connID, pokertable.Check, 0) }
func (h *Handler) HandleCall(connID connmgr.ConnectionID)  { h.act(connID, pokertable.Call, 0) }
func (h *Handler) HandleRaise(connID connmgr.ConnectionID, amount int64) {
	h.act(connID, pokertable.Raise, amount)
}
func (h *Handler) HandleAllIn(connID connmgr.ConnectionID) { h.act(connID, pokertable.AllIn, 0) }

// HandleGetAvailableActions reports which actions are legal for the
// caller right now, addressed to them alone.
func (h *Handler) HandleGetAvailableActions(connID connmgr.ConnectionID) {
	info, svc, ok := h.resolve(connID)
	if !ok {
		return
	}
	if info.IsSpectator {
		h.sendError(connID, "spectator_cannot_act", "spectators have no actions")
		return
	}
	table := svc.Actor.Snapshot()
	actions := availableActions(table, info.PlayerID)
	_ = h.registry.Broadcaster.SendTo(connID, transport.AvailableActions, actions)
}

type timerStatePayload struct {
	PlayerID          string `json:"playerId"`
	RemainingSeconds  int    `json:"remainingSeconds"`
	InTimeBank        bool   `json:"inTimeBank"`
	TimeBankRemaining int    `json:"timeBankRemaining"`
	Active            bool   `json:"active"`
}

// HandleGetTimerState reports the caller's table's current countdown
// projection, addressed to them alone.
func (h *Handler) HandleGetTimerState(connID connmgr.ConnectionID) {
	_, svc, ok := h.resolve(connID)
	if !ok {
		return
	}
	snap := svc.Timer.State()
	_ = h.registry.Broadcaster.SendTo(connID, transport.TimerState, timerStatePayload{
		PlayerID:          snap.PlayerID,
		RemainingSeconds:  snap.RemainingSeconds,
		InTimeBank:        snap.InTimeBank,
		TimeBankRemaining: snap.TimeBankRemaining,
		Active:            snap.Active,
	})
}

// HandleRequestMuck acknowledges a muck request at showdown. Showdown
// resolution (show order, auto-muck of drawing-dead hands) already runs
// to completion inside ExecuteShowdown the moment the last street
// closes, so there is no pending decision left to apply by the time a
// client's request arrives; this exists so clients that offer a
// "request muck" affordance get an explicit acknowledgement rather than
// silence.
func (h *Handler) HandleRequestMuck(connID connmgr.ConnectionID) {
	info, _, ok := h.resolve(connID)
	if !ok {
		return
	}
	h.logger.Info("request_muck received after automatic showdown resolution", "player", info.PlayerID, "table", info.TableID)
}
