package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"vent_controller/internal/models"
	"vent_controller/internal/service"
	"vent_controller/internal/vent"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type bridgeEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialBridge(t *testing.T, s *service.Service) (*websocket.Conn, *Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/bridge", h.bridgeConnect)

	srv := httptest.NewServer(r)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/bridge"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial error: %v", err)
	}
	return conn, h, func() {
		conn.Close()
		srv.Close()
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) bridgeEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env bridgeEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

func TestBridge_InitialPositionAndGet(t *testing.T) {
	mv := &mockVent{position: models.VentPosition{Angle: 135, State: vent.StatePartial}}
	s := &service.Service{Vent: mv, Mover: &mockMover{}}

	conn, _, done := dialBridge(t, s)
	defer done()

	// Initial position push carries angle, coverage percent and state name.
	env := readEnvelope(t, conn)
	if env.Type != "position" {
		t.Fatalf("expected position, got %+v", env)
	}
	var pos wsPosition
	if err := json.Unmarshal(env.Data, &pos); err != nil {
		t.Fatalf("unmarshal position: %v", err)
	}
	if pos.Angle != 135 || pos.State != "partial" {
		t.Fatalf("unexpected position: %+v", pos)
	}
	if pos.Percent100ths != vent.AngleToPercent(135) {
		t.Fatalf("percent=%d, want %d", pos.Percent100ths, vent.AngleToPercent(135))
	}

	// Explicit read command gets another position envelope.
	if err := conn.WriteJSON(map[string]any{"type": "get_position"}); err != nil {
		t.Fatalf("write command: %v", err)
	}
	env = readEnvelope(t, conn)
	if env.Type != "position" {
		t.Fatalf("expected position reply, got %+v", env)
	}
}

func TestBridge_SetPositionCommand(t *testing.T) {
	mv := &mockVent{
		position: models.VentPosition{Angle: 90, State: vent.StateClosed},
		resp:     models.TargetResponse{Angle: 180, State: vent.StateMoving, PreviousAngle: 90},
	}
	s := &service.Service{Vent: mv, Mover: &mockMover{}}

	conn, _, done := dialBridge(t, s)
	defer done()

	_ = readEnvelope(t, conn) // initial position

	if err := conn.WriteJSON(map[string]any{"type": "set_position", "percent100ths": 0}); err != nil {
		t.Fatalf("write command: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != "accepted" {
		t.Fatalf("expected accepted, got %+v", env)
	}
	if mv.setPercentCalls != 1 || mv.lastPercent != 0 {
		t.Fatalf("SetTargetPercent calls=%d pct=%d", mv.setPercentCalls, mv.lastPercent)
	}
}

func TestBridge_UnknownAndMalformedCommands(t *testing.T) {
	mv := &mockVent{}
	s := &service.Service{Vent: mv, Mover: &mockMover{}}

	conn, _, done := dialBridge(t, s)
	defer done()

	_ = readEnvelope(t, conn) // initial position

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)); err != nil {
		t.Fatalf("write malformed: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != "error" || env.Error == "" {
		t.Fatalf("expected error envelope, got %+v", env)
	}

	if err := conn.WriteJSON(map[string]any{"type": "reboot"}); err != nil {
		t.Fatalf("write unknown: %v", err)
	}
	env = readEnvelope(t, conn)
	if env.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", env)
	}

	// set_position without a value is rejected without touching the vent.
	if err := conn.WriteJSON(map[string]any{"type": "set_position"}); err != nil {
		t.Fatalf("write incomplete: %v", err)
	}
	env = readEnvelope(t, conn)
	if env.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	if mv.setPercentCalls != 0 {
		t.Fatalf("SetTargetPercent must not run, calls=%d", mv.setPercentCalls)
	}
}

func TestBridge_BroadcastOnMoveCompleted(t *testing.T) {
	mv := &mockVent{position: models.VentPosition{Angle: 90, State: vent.StateClosed}}
	s := &service.Service{Vent: mv, Mover: &mockMover{}}

	conn, h, done := dialBridge(t, s)
	defer done()

	_ = readEnvelope(t, conn) // initial position

	h.hub.broadcastPosition(models.VentPosition{Angle: 180, State: vent.StateOpen})

	env := readEnvelope(t, conn)
	if env.Type != "position" {
		t.Fatalf("expected position broadcast, got %+v", env)
	}
	var pos wsPosition
	if err := json.Unmarshal(env.Data, &pos); err != nil {
		t.Fatalf("unmarshal position: %v", err)
	}
	if pos.Angle != 180 || pos.State != "open" || pos.Percent100ths != 0 {
		t.Fatalf("unexpected broadcast: %+v", pos)
	}
}
