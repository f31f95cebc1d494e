package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/bombpot/internal/connmgr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Handler receives parsed client intents. Implementations must not block;
// dispatch into a table's orchestrator actor, which itself serializes.
type Handler interface {
	HandleJoinTable(connID connmgr.ConnectionID, data JoinTableData)
	HandleJoinSpectator(connID connmgr.ConnectionID, data JoinSpectatorData)
	HandleLeaveTable(connID connmgr.ConnectionID)
	HandleFold(connID connmgr.ConnectionID)
	HandleCheck(connID connmgr.ConnectionID)
	HandleCall(connID connmgr.ConnectionID)
	HandleRaise(connID connmgr.ConnectionID, amount int64)
	HandleAllIn(connID connmgr.ConnectionID)
	HandleGetAvailableActions(connID connmgr.ConnectionID)
	HandleGetTimerState(connID connmgr.ConnectionID)
	HandleRequestMuck(connID connmgr.ConnectionID)
	HandleDisconnect(connID connmgr.ConnectionID)
}

// Connection wraps one websocket and pumps messages to/from a Handler.
type Connection struct {
	ID      connmgr.ConnectionID
	conn    *websocket.Conn
	send    chan *Message
	handler Handler
	logger  *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps conn, dispatching parsed messages to handler.
func NewConnection(id connmgr.ConnectionID, conn *websocket.Conn, handler Handler, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:      id,
		conn:    conn,
		send:    make(chan *Message, 256),
		handler: handler,
		logger:  logger.WithPrefix("conn").With("id", string(id)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears down the connection. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send enqueues msg for delivery. Returns an ExternalSendFailure-style
// error if the connection's outbound buffer is full or already closed;
// the caller (Broadcaster) logs and moves on to the next connection.
func (c *Connection) Send(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errClosed
		}
	}()
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, dropping connection")
		_ = c.Close()
		return errClosed
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.handler.HandleDisconnect(c.ID)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		c.dispatch(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) dispatch(msg *Message) {
	switch msg.Type {
	case JoinTable:
		var data JoinTableData
		if c.unmarshal(msg, &data) {
			c.handler.HandleJoinTable(c.ID, data)
		}
	case JoinAsSpectator:
		var data JoinSpectatorData
		if c.unmarshal(msg, &data) {
			c.handler.HandleJoinSpectator(c.ID, data)
		}
	case LeaveTable:
		c.handler.HandleLeaveTable(c.ID)
	case Fold:
		c.handler.HandleFold(c.ID)
	case Check:
		c.handler.HandleCheck(c.ID)
	case Call:
		c.handler.HandleCall(c.ID)
	case Raise:
		var data RaiseData
		if c.unmarshal(msg, &data) {
			c.handler.HandleRaise(c.ID, data.Amount)
		}
	case AllIn:
		c.handler.HandleAllIn(c.ID)
	case GetAvailableActions:
		c.handler.HandleGetAvailableActions(c.ID)
	case GetTimerState:
		c.handler.HandleGetTimerState(c.ID)
	case RequestMuck:
		c.handler.HandleRequestMuck(c.ID)
	default:
		c.sendError("unknown_message_type", "unrecognized message type: "+msg.Type.String())
	}
}

func (c *Connection) unmarshal(msg *Message, into interface{}) bool {
	if err := json.Unmarshal(msg.Data, into); err != nil {
		c.sendError("invalid_message", err.Error())
		return false
	}
	return true
}

func (c *Connection) sendError(code, message string) {
	m, err := NewMessage(Error, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = c.Send(m)
}

var errClosed = websocket.ErrCloseSent
