// Package websocket exposes the broadcast hub over websocket connections.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/core/services/broadcast"
)

const closeWait = time.Second

// Registry is the part of the hub the websocket layer needs.
type Registry interface {
	Subscribe(sub ports.Subscriber) broadcast.Handle
	Unsubscribe(handle broadcast.Handle)
}

// WSManager upgrades HTTP requests and registers each connection with the hub.
type WSManager struct {
	hub      Registry
	upgrader ws.Upgrader
}

// NewWSManager builds a manager. With no allowed origins every origin is
// accepted; otherwise requests without an Origin header and requests from a
// listed origin are.
func NewWSManager(hub Registry, allowedOrigins ...string) *WSManager {
	m := &WSManager{hub: hub}
	m.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			slog.Warn("WebSocket: rejected origin", "origin", origin)
			return false
		},
	}
	return m
}

// HandleWebSocket serves /ws. Text frames from the client are echoed back
// as {"echo": data}.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	sub := NewWSSubscriber(conn)
	handle := m.hub.Subscribe(sub)

	go func() {
		defer m.hub.Unsubscribe(handle)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := sub.write(context.Background(), map[string]string{"echo": string(data)}); err != nil {
				return
			}
		}
	}()
}

// WSSubscriber adapts a websocket connection to ports.Subscriber.
type WSSubscriber struct {
	id   string
	conn *ws.Conn

	writeMu sync.Mutex
	once    sync.Once
}

var _ ports.Subscriber = (*WSSubscriber)(nil)

func NewWSSubscriber(conn *ws.Conn) *WSSubscriber {
	return &WSSubscriber{id: "ws-" + uuid.NewString()[:8], conn: conn}
}

func (s *WSSubscriber) ID() string { return s.id }

// Send writes msg as a JSON text frame, bounded by the deadline in ctx.
func (s *WSSubscriber) Send(ctx context.Context, msg domain.BroadcastMessage) error {
	return s.write(ctx, msg)
}

func (s *WSSubscriber) write(ctx context.Context, v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// Close sends a close frame and releases the connection. Safe to call twice.
func (s *WSSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		s.writeMu.Lock()
		msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
		_ = s.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(closeWait))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
