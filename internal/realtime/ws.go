package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer and the JWT requirement
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades the request, subscribes the connection to grupo and pumps
// messages until the peer goes away. The caller must have authenticated the
// request already.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, grupo string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	// The ack is queued before joining so it is always the first frame
	c := h.NewClient()
	ack, _ := json.Marshal(Mensaje{Message: MsgConexion})
	c.send <- ack
	h.Subscribe(c, grupo)
	log.Info().Str("grupo", grupo).Str("client_id", c.ID).Msg("realtime: cliente conectado")

	go writePump(conn, c)
	readPump(conn, h, c, grupo)
	return nil
}

// readPump discards inbound frames; its exit is the disconnect signal.
func readPump(conn *websocket.Conn, h *Hub, c *Client, grupo string) {
	defer func() {
		h.Unsubscribe(c)
		_ = conn.Close()
		log.Info().Str("grupo", grupo).Str("client_id", c.ID).Msg("realtime: cliente desconectado")
	}()

	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
