// Package realtime is the in-process notification bus: named broadcast groups
// of connected staff clients. Delivery is best effort, at most once per
// client subscribed at publish time, with no persistence or replay.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Groups
const (
	GrupoPedidos = "pedidos_new_orders"
	GrupoCadetes = "cadetes"
)

// Message kinds
const (
	MsgConexion    = "connection_established"
	MsgNewOrder    = "new_order"
	MsgOrderUpdate = "order_update"
	MsgStoreStatus = "store_status"
)

// Mensaje is the wire payload sent to every subscriber.
type Mensaje struct {
	Message   string `json:"message"`
	OrderID   *uint  `json:"order_id"`
	OrderData any    `json:"order_data"`
}

// Publisher is what services depend on to announce events.
type Publisher interface {
	Publish(ctx context.Context, grupo string, msg Mensaje) error
}

const defaultSendBuffer = 32

// Client is one connected subscriber with a bounded outbound queue.
type Client struct {
	ID   string
	send chan []byte
}

// Send is the client's outbound queue. It is closed after Unsubscribe.
func (c *Client) Send() <-chan []byte { return c.send }

// Hub tracks group membership. Publishing never blocks on a slow client:
// a full queue drops the message for that client only.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	buffer  int
}

func NewHub() *Hub {
	return &Hub{
		groups:  map[string]map[*Client]struct{}{},
		clients: map[*Client]struct{}{},
		buffer:  defaultSendBuffer,
	}
}

func (h *Hub) NewClient() *Client {
	return &Client{ID: uuid.NewString(), send: make(chan []byte, h.buffer)}
}

func (h *Hub) Subscribe(c *Client, grupo string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[grupo]
	if !ok {
		members = map[*Client]struct{}{}
		h.groups[grupo] = members
	}
	if _, known := h.clients[c]; !known {
		h.clients[c] = struct{}{}
		clientesConectados.Inc()
	}
	members[c] = struct{}{}
}

// Unsubscribe removes the client from every group and closes its queue.
// Calling it twice is a no-op.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for name, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	delete(h.clients, c)
	close(c.send)
	clientesConectados.Dec()
}

// Members returns how many clients are currently in grupo.
func (h *Hub) Members(grupo string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[grupo])
}

// Publish encodes msg and broadcasts it to the local members of grupo.
func (h *Hub) Publish(_ context.Context, grupo string, msg Mensaje) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(grupo, raw)
	return nil
}

// Broadcast delivers an encoded payload and returns how many clients got it.
func (h *Hub) Broadcast(grupo string, payload []byte) int {
	// Holding the read lock keeps Unsubscribe from closing a queue mid-send
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.groups[grupo] {
		select {
		case c.send <- payload:
			delivered++
		default:
			mensajesDescartados.Inc()
			log.Warn().Str("grupo", grupo).Str("client_id", c.ID).Msg("realtime: cola llena, mensaje descartado")
		}
	}
	return delivered
}
