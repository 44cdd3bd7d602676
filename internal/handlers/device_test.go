package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"vent_controller/internal/codec"
	"vent_controller/internal/models"
	"vent_controller/internal/service"
)

func strp(s string) *string { return &s }

func TestDeviceHandlers_IdentityAndHealth(t *testing.T) {
	tel := &mockTelemetry{
		identity: models.DeviceIdentity{
			EUI64:           "aa:bb:cc:ff:fe:11:22:33",
			FirmwareVersion: "1.2.0",
			UptimeS:         42,
		},
		health: models.DeviceHealth{
			RSSI:         -61,
			PollPeriodMS: 5000,
			PowerSource:  models.PowerBattery,
			FreeHeap:     120_000,
			BatteryMV:    func() *uint16 { v := uint16(2950); return &v }(),
		},
	}
	s := &service.Service{Telemetry: tel, Mover: &mockMover{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/device/identity", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("identity status=%d", w.Code)
	}
	var id models.DeviceIdentity
	if err := codec.Unmarshal(w.Body.Bytes(), &id); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if id.EUI64 != "aa:bb:cc:ff:fe:11:22:33" || id.UptimeS != 42 {
		t.Fatalf("unexpected identity: %+v", id)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/device/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var hlth models.DeviceHealth
	if err := codec.Unmarshal(w.Body.Bytes(), &hlth); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if hlth.PowerSource != models.PowerBattery || hlth.BatteryMV == nil || *hlth.BatteryMV != 2950 {
		t.Fatalf("unexpected health: %+v", hlth)
	}
}

func TestDeviceHandlers_IdentityFailure(t *testing.T) {
	tel := &mockTelemetry{identityErr: errBoom}
	s := &service.Service{Telemetry: tel, Mover: &mockMover{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/device/identity", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestDeviceHandlers_ConfigGetPut(t *testing.T) {
	dc := &mockDeviceConfig{
		stored: models.DeviceConfig{Room: strp("bedroom"), Floor: strp("2"), Name: strp("north vent")},
	}
	s := &service.Service{DeviceConfig: dc, Mover: &mockMover{}}
	r := newTestRouter(s)

	// GET returns the stored config
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/device/config", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("config get status=%d", w.Code)
	}
	var got models.DeviceConfig
	if err := codec.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got.Room == nil || *got.Room != "bedroom" {
		t.Fatalf("unexpected config: %+v", got)
	}

	// PUT with only one field forwards a partial update
	body, err := codec.Marshal(models.DeviceConfig{Room: strp("kitchen")})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/device/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentTypeCBOR)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("config put status=%d", w.Code)
	}
	if dc.putCalls != 1 {
		t.Fatalf("Put calls=%d", dc.putCalls)
	}
	if dc.lastPut.Room == nil || *dc.lastPut.Room != "kitchen" {
		t.Fatalf("room not forwarded: %+v", dc.lastPut)
	}
	if dc.lastPut.Floor != nil || dc.lastPut.Name != nil {
		t.Fatalf("absent fields must stay nil: %+v", dc.lastPut)
	}
}

func TestDeviceHandlers_ConfigPutMalformed(t *testing.T) {
	dc := &mockDeviceConfig{}
	s := &service.Service{DeviceConfig: dc, Mover: &mockMover{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/device/config", bytes.NewReader([]byte{0x9f, 0x9f}))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if dc.putCalls != 0 {
		t.Fatalf("Put must not run on malformed payload, calls=%d", dc.putCalls)
	}
}
