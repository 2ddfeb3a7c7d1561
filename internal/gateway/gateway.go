// Package gateway bridges websocket clients to the table service. Each
// connection authenticates with a session token, subscribes to tables,
// and receives its own redacted projection of every committed change.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"felt/engine"
	"felt/internal/auth"
	"felt/internal/codec"
	"felt/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in production
	},
}

type Connection struct {
	ID       string
	UID      string
	Username string

	conn    *websocket.Conn
	send    chan []byte
	gateway *Gateway

	serverSeq uint64

	mu     sync.Mutex
	tables map[string]struct{} // subscribed table ids
}

type Gateway struct {
	mu      sync.RWMutex
	conns   map[string]*Connection
	byTable map[string]map[string]*Connection
	nextID  uint64

	svc  *service.Service
	auth auth.Service
}

func New(svc *service.Service, authService auth.Service) *Gateway {
	return &Gateway{
		conns:   make(map[string]*Connection),
		byTable: make(map[string]map[string]*Connection),
		svc:     svc,
		auth:    authService,
	}
}

// HandleWebSocket upgrades an authenticated client. The session token
// comes from the Authorization header or a token query parameter.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	uid, username, ok := g.resolveSession(r)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextID),
		UID:      uid,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, 256),
		gateway:  g,
		tables:   make(map[string]struct{}),
	}
	g.conns[c.ID] = c
	total := len(g.conns)
	g.mu.Unlock()

	log.Printf("[Gateway] client connected: %s (uid=%s), total: %d", c.ID, uid, total)

	go c.readPump()
	go c.writePump()
}

func (g *Gateway) resolveSession(r *http.Request) (string, string, bool) {
	token := ""
	if raw := r.Header.Get("Authorization"); strings.HasPrefix(raw, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", "", false
	}
	return g.auth.ResolveSession(token)
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var env codec.ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendEnvelope(codec.WrapError("", "", c.nextSeq(), fmt.Errorf("invalid message format")))
		return
	}

	switch env.Type {
	case codec.ClientTypeSubscribe:
		c.handleSubscribe(env)
	case codec.ClientTypeUnsubscribe:
		c.unsubscribe(env.TableID)
	case codec.ClientTypeIntent:
		c.handleIntent(env)
	case codec.ClientTypeChat:
		c.handleChat(env)
	case codec.ClientTypePing:
		c.sendEnvelope(codec.WrapPong(env.RequestID, c.nextSeq()))
	default:
		c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(),
			fmt.Errorf("unknown message type %q", env.Type)))
	}
}

// handleSubscribe attaches the connection to a table and replies with a
// snapshot. Password-protected tables check the password in Text unless
// the viewer is already seated.
func (c *Connection) handleSubscribe(env codec.ClientEnvelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tbl, version, err := c.gateway.svc.Load(ctx, env.TableID)
	if err != nil {
		c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(), err))
		return
	}
	if tbl.SeatByUID(c.UID) == nil && tbl.CreatorUID != c.UID {
		if err := service.CheckPassword(tbl, env.Text); err != nil {
			c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(), err))
			return
		}
	}

	c.mu.Lock()
	c.tables[env.TableID] = struct{}{}
	c.mu.Unlock()
	c.gateway.attach(env.TableID, c)

	view := codec.ProjectTable(tbl, version, c.UID)
	frame := codec.WrapTable(env.TableID, c.nextSeq(), view)
	frame.RequestID = env.RequestID
	c.sendEnvelope(frame)
}

func (c *Connection) unsubscribe(tableID string) {
	c.mu.Lock()
	delete(c.tables, tableID)
	c.mu.Unlock()
	c.gateway.detach(tableID, c)
}

func (c *Connection) handleIntent(env codec.ClientEnvelope) {
	if env.Intent == nil {
		c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(),
			fmt.Errorf("intent frame without intent body")))
		return
	}
	in := *env.Intent
	// The session, not the client, decides who is acting.
	in.UID = c.UID
	if in.DisplayName == "" {
		in.DisplayName = c.Username
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := c.gateway.svc.Dispatch(ctx, env.TableID, in)
	if err != nil {
		c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(), err))
		// A deck underflow aborts the hand but still commits the
		// refunded document; everyone needs the new state.
		if engine.KindOf(err) == engine.KindDeckUnderflow && res.Table != nil {
			c.gateway.TableChanged(env.TableID, res)
		}
		return
	}
	c.gateway.TableChanged(env.TableID, res)
}

func (c *Connection) handleChat(env codec.ClientEnvelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := c.gateway.svc.AppendChat(ctx, env.TableID, c.UID, c.Username, env.Text)
	if err != nil {
		c.sendEnvelope(codec.WrapError(env.TableID, env.RequestID, c.nextSeq(), err))
		return
	}
	msg := res.Table.ChatLog[len(res.Table.ChatLog)-1]
	c.gateway.broadcastChat(env.TableID, msg)
}

// TableChanged fans a committed document out to every subscriber, each
// through their own projection. It also serves as the clock notifier.
func (g *Gateway) TableChanged(tableID string, res service.Result) {
	for _, sub := range g.subscribers(tableID) {
		view := codec.ProjectTable(res.Table, res.Version, sub.UID)
		sub.sendEnvelope(codec.WrapTable(tableID, sub.nextSeq(), view))
	}
}

func (g *Gateway) broadcastChat(tableID string, msg engine.ChatMessage) {
	for _, sub := range g.subscribers(tableID) {
		sub.sendEnvelope(codec.WrapChat(tableID, sub.nextSeq(), msg))
	}
}

func (g *Gateway) subscribers(tableID string) []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	subs := make([]*Connection, 0, len(g.byTable[tableID]))
	for _, sub := range g.byTable[tableID] {
		subs = append(subs, sub)
	}
	return subs
}

func (g *Gateway) attach(tableID string, c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.byTable[tableID] == nil {
		g.byTable[tableID] = make(map[string]*Connection)
	}
	g.byTable[tableID][c.ID] = c
}

func (g *Gateway) detach(tableID string, c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.byTable[tableID], c.ID)
	if len(g.byTable[tableID]) == 0 {
		delete(g.byTable, tableID)
	}
}

func (c *Connection) nextSeq() uint64 {
	return atomic.AddUint64(&c.serverSeq, 1)
}

func (c *Connection) sendEnvelope(env codec.ServerEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Gateway] marshal envelope: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		// Drop if the client cannot keep up; the next table frame
		// carries the full state anyway.
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	c.mu.Lock()
	subscribed := make([]string, 0, len(c.tables))
	for id := range c.tables {
		subscribed = append(subscribed, id)
	}
	c.mu.Unlock()
	for _, id := range subscribed {
		g.detach(id, c)
	}

	g.mu.Lock()
	delete(g.conns, c.ID)
	total := len(g.conns)
	g.mu.Unlock()
	log.Printf("[Gateway] client disconnected: %s, total: %d", c.ID, total)
}
