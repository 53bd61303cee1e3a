// Package hub is the fan-out primitive: it knows every live connection,
// which of them are admins, and how to send an event envelope to one
// connection, to the admin group, or to everyone.
package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/arthurd34/OpenImpro-Live/pkg/transport"
)

// Envelope is the wire shape of every server-to-client message.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type entry struct {
	conn *transport.Connection
	ip   string
}

type Hub struct {
	mu     sync.RWMutex
	conns  map[string]entry
	admins map[string]bool

	logger *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]entry),
		admins: make(map[string]bool),
		logger: logger.With(slog.String("component", "hub")),
	}
}

func (h *Hub) Register(conn *transport.Connection, ip string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID().String()] = entry{conn: conn, ip: ip}
}

func (h *Hub) Deregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	delete(h.admins, connID)
}

// JoinAdmins marks a connection as part of the admin group.
func (h *Hub) JoinAdmins(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; ok {
		h.admins[connID] = true
	}
}

// CountByIP returns how many live connections share an IP address.
func (h *Hub) CountByIP(ip string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, e := range h.conns {
		if e.ip == ip {
			n++
		}
	}
	return n
}

// SendTo delivers an event to a single connection. Unknown connection ids
// are dropped silently; late sends after a disconnect are expected.
func (h *Hub) SendTo(connID, event string, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	e, found := h.conns[connID]
	h.mu.RUnlock()
	if found {
		e.conn.Send(msg)
	}
}

// ToAdmins delivers an event to every connection in the admin group.
func (h *Hub) ToAdmins(event string, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.admins {
		if e, found := h.conns[id]; found {
			e.conn.Send(msg)
		}
	}
}

// ToAll delivers an event to every live connection, admin or not.
func (h *Hub) ToAll(event string, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.conns {
		e.conn.Send(msg)
	}
}

// CloseConnection force-closes the underlying transport. Used for the
// deferred disconnect after a kick.
func (h *Hub) CloseConnection(connID string, reason string) {
	h.mu.RLock()
	e, found := h.conns[connID]
	h.mu.RUnlock()
	if found {
		e.conn.Close(errors.New(reason))
	}
}

// CloseAll force-closes every live connection; used during shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	conns := make([]*transport.Connection, 0, len(h.conns))
	for _, e := range h.conns {
		conns = append(conns, e.conn)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.Close(errors.New(reason))
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	msg, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to encode outbound event", slog.String("event", event), slog.Any("error", err))
		return nil, false
	}
	return msg, true
}
