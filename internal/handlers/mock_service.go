package handlers

import (
	"context"
	"errors"
	"time"

	"vent_controller/internal/models"
	"vent_controller/internal/service"

	"github.com/gin-gonic/gin"
)

var errBoom = errors.New("boom")

// ---- Service Mocks ----

type mockVent struct {
	position models.VentPosition
	resp     models.TargetResponse
	err      error

	setTargetCalls  int
	setPercentCalls int
	lastAngle       uint8
	lastPercent     uint16
}

func (m *mockVent) Position() models.VentPosition {
	return m.position
}
func (m *mockVent) SetTarget(ctx context.Context, angle uint8) (models.TargetResponse, error) {
	m.setTargetCalls++
	m.lastAngle = angle
	return m.resp, m.err
}
func (m *mockVent) SetTargetPercent(ctx context.Context, pct uint16) (models.TargetResponse, error) {
	m.setPercentCalls++
	m.lastPercent = pct
	return m.resp, m.err
}

type mockDeviceConfig struct {
	stored models.DeviceConfig
	getErr error
	putErr error

	putCalls int
	lastPut  models.DeviceConfig
}

func (m *mockDeviceConfig) Get(ctx context.Context) (models.DeviceConfig, error) {
	return m.stored, m.getErr
}
func (m *mockDeviceConfig) Put(ctx context.Context, req models.DeviceConfig) (models.DeviceConfig, error) {
	m.putCalls++
	m.lastPut = req
	if m.putErr != nil {
		return models.DeviceConfig{}, m.putErr
	}
	return m.stored, nil
}

type mockTelemetry struct {
	identity    models.DeviceIdentity
	identityErr error
	health      models.DeviceHealth
}

func (m *mockTelemetry) Identity(ctx context.Context) (models.DeviceIdentity, error) {
	return m.identity, m.identityErr
}
func (m *mockTelemetry) Health() models.DeviceHealth {
	return m.health
}

type mockEventLog struct {
	resp     []models.VentEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.VentEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockMover struct {
	hooks int
}

func (m *mockMover) Run(ctx context.Context, stepInterval, idleInterval time.Duration) {}
func (m *mockMover) OnMoveCompleted(fn func(models.VentPosition)) {
	m.hooks++
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
