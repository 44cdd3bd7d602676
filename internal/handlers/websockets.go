package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"vent_controller/internal/models"
	"vent_controller/internal/vent"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12 // 4 KB
	sendBacklog = 8
)

// Envelope used for WebSocket messages on the bridge surface.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsCommand is what bridge clients send: a position command or a read.
type wsCommand struct {
	Type          string  `json:"type"`
	Percent100ths *uint16 `json:"percent100ths,omitempty"`
}

// wsPosition mirrors the flap position in bridge terms: both the native
// angle and the 0..10000 coverage scale the bridge fabric speaks.
type wsPosition struct {
	Angle         uint8  `json:"angle"`
	Percent100ths uint16 `json:"percent100ths"`
	State         string `json:"state"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// bridgeHub tracks connected bridge clients so move completions can be
// pushed to all of them without the mover knowing about websockets.
type bridgeHub struct {
	mu    sync.Mutex
	conns map[chan wsEnvelope]struct{}
}

func newBridgeHub() *bridgeHub {
	return &bridgeHub{conns: make(map[chan wsEnvelope]struct{})}
}

func (b *bridgeHub) register() chan wsEnvelope {
	ch := make(chan wsEnvelope, sendBacklog)
	b.mu.Lock()
	b.conns[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *bridgeHub) unregister(ch chan wsEnvelope) {
	b.mu.Lock()
	delete(b.conns, ch)
	b.mu.Unlock()
}

// broadcastPosition fans a committed position out to every connected
// bridge client. Slow clients drop the update rather than block the mover.
func (b *bridgeHub) broadcastPosition(pos models.VentPosition) {
	env := wsEnvelope{Type: "position", Data: positionEnvelope(pos)}
	b.mu.Lock()
	for ch := range b.conns {
		select {
		case ch <- env:
		default:
		}
	}
	b.mu.Unlock()
}

func positionEnvelope(pos models.VentPosition) wsPosition {
	return wsPosition{
		Angle:         pos.Angle,
		Percent100ths: vent.AngleToPercent(pos.Angle),
		State:         pos.State.String(),
	}
}

// @Summary      Bridge WebSocket
// @Description  Upgrades to a WebSocket carrying JSON envelopes. Clients send {"type":"set_position","percent100ths":N} or {"type":"get_position"}; the controller pushes {"type":"position",...} on request and after every completed move.
// @Tags         bridge
// @Router       /bridge [get]
func (h *Handler) bridgeConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("bridge_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	outbound := h.hub.register()
	defer h.hub.unregister(outbound)

	// Reader goroutine parses client commands and detects disconnects.
	done := make(chan struct{})
	go h.bridgeReader(c, conn, outbound, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Send the current position immediately so the bridge can sync.
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsEnvelope{Type: "position", Data: positionEnvelope(h.services.Vent.Position())}); err != nil {
		if h.log != nil {
			h.log.Infow("bridge_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("bridge_ping_failed", "err", err)
				}
				return
			}
		case env := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				if h.log != nil {
					h.log.Infow("bridge_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// bridgeReader drains incoming messages, executing commands and queueing
// their replies on the connection's outbound channel.
func (h *Handler) bridgeReader(c *gin.Context, conn *websocket.Conn, outbound chan wsEnvelope, done chan<- struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("bridge_read_closed", "err", err)
			}
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.queueReply(outbound, wsEnvelope{Type: "error", Error: "malformed command"})
			continue
		}
		switch cmd.Type {
		case "get_position":
			h.queueReply(outbound, wsEnvelope{Type: "position", Data: positionEnvelope(h.services.Vent.Position())})
		case "set_position":
			if cmd.Percent100ths == nil {
				h.queueReply(outbound, wsEnvelope{Type: "error", Error: "set_position requires percent100ths"})
				continue
			}
			resp, err := h.services.Vent.SetTargetPercent(c.Request.Context(), *cmd.Percent100ths)
			if err != nil {
				if h.log != nil {
					h.log.Errorw("bridge_set_position_failed", "err", err)
				}
				h.queueReply(outbound, wsEnvelope{Type: "error", Error: "failed to set position"})
				continue
			}
			h.queueReply(outbound, wsEnvelope{Type: "accepted", Data: resp})
		default:
			h.queueReply(outbound, wsEnvelope{Type: "error", Error: "unknown command type"})
		}
	}
}

func (h *Handler) queueReply(outbound chan wsEnvelope, env wsEnvelope) {
	select {
	case outbound <- env:
	default:
		if h.log != nil {
			h.log.Infow("bridge_reply_dropped")
		}
	}
}
