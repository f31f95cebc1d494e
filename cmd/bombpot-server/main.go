// Command bombpot-server runs the table engine behind a websocket
// listener: one TableActor per configured table, a shared EventStore and
// Broadcaster, and a ConnectionManager mapping sockets to seats. Lobby,
// session issuance, and account/chip persistence live elsewhere; this
// binary seats a fixed roster of demo players per table at startup so
// the engine can be driven end-to-end by a websocket client without a
// separate identity service.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bombpot/internal/app"
	"github.com/lox/bombpot/internal/broadcast"
	"github.com/lox/bombpot/internal/connmgr"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/transport"
)

// CLI holds the server's flags: a listen address, log level, and the
// per-table defaults every demo table is created with.
var CLI struct {
	Addr               string `kong:"default=':8080',help='Address to bind the websocket listener to'"`
	LogLevel           string `kong:"default='info',help='Log level (debug, info, warn, error)'"`
	Tables             int    `kong:"default='1',help='Number of demo tables to create'"`
	Players            int    `kong:"default='6',help='Number of demo players seated per table'"`
	SmallBlind         int64  `kong:"default='100',help='Small blind in cents (big blind is always 2x)'"`
	StartingChips      int64  `kong:"default='20000',help='Starting chip stack per seated player, in cents'"`
	ActionTimerSeconds int    `kong:"default='30',help='Seconds allotted per action (0 disables the timer)'"`
	TimeBankEnabled    bool   `kong:"default='true',help='Enable the per-player time bank escalation'"`
	TimeBankSeconds    int    `kong:"default='60',help='Initial time-bank seconds per player'"`
	BombPotAnte        int64  `kong:"default='200',help='Ante for manually triggered bomb pots, in cents'"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	store := eventstore.New()
	conns := connmgr.New()
	broadcaster := broadcast.New(conns, logger)
	registry := app.NewRegistry(store, broadcaster, quartz.NewReal(), logger)

	for i := 0; i < CLI.Tables; i++ {
		table := newDemoTable(i+1, CLI.Players)
		svc := registry.CreateTable(table)
		logger.Info("created table", "id", table.ID, "name", table.Name, "players", len(table.Seats),
			"smallBlind", table.SmallBlind, "bigBlind", table.BigBlind)
		if err := svc.Actor.StartNewHand(); err != nil {
			logger.Error("failed to deal first hand", "table", table.ID, "error", err)
		}
	}

	handler := app.NewHandler(conns, registry, logger)
	wsServer := transport.NewServer(handler, logger, func(id connmgr.ConnectionID, c *transport.Connection) {
		broadcaster.Register(id, c)
	})

	listener, err := net.Listen("tcp", CLI.Addr)
	if err != nil {
		logger.Error("failed to bind listener", "addr", CLI.Addr, "error", err)
		ctx.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		os.Exit(0)
	}()

	logger.Info("bombpot-server listening", "addr", CLI.Addr, "tables", CLI.Tables)
	if err := wsServer.Serve(listener); err != nil {
		logger.Error("server stopped", "error", err)
		ctx.Exit(1)
	}
}

// newDemoTable builds a table configured from CLI flags with numPlayers
// seated players ready to play.
func newDemoTable(index, numPlayers int) *pokertable.Table {
	table := pokertable.NewTable(
		pokertable.TableID(fmt.Sprintf("table-%d", index)),
		fmt.Sprintf("Table %d", index),
		CLI.SmallBlind,
	)
	table.ActionTimerSeconds = CLI.ActionTimerSeconds
	table.TimeBankEnabled = CLI.TimeBankEnabled
	table.TimeBankInitialSeconds = CLI.TimeBankSeconds
	table.BombPot = pokertable.BombPotConfig{
		Variant: pokertable.BombPotSingleBoard,
		Ante:    CLI.BombPotAnte,
		Trigger: pokertable.BombPotManual,
	}

	for seat := 1; seat <= numPlayers; seat++ {
		playerID := pokertable.PlayerID(fmt.Sprintf("p%d", seat))
		player := pokertable.NewPlayer(playerID, fmt.Sprintf("Player %d", seat), seat, CLI.StartingChips)
		player.Status = pokertable.StatusActive
		if CLI.TimeBankEnabled {
			player.TimeBankSeconds = CLI.TimeBankSeconds
		}
		table.Seat(seat, player)
	}

	return table
}
