package service

import (
	"context"
	"fmt"
	"math"
	"net"
	"runtime"
	"strings"
	"sync"
	"time"

	"vent_controller/internal/models"
	"vent_controller/internal/repository"

	"github.com/google/uuid"
)

// RadioStats is the link-quality collaborator. The mesh stack owns the
// real value; deployments without one use StaticRadio.
type RadioStats interface {
	RSSI() int8
}

// StaticRadio reports a fixed link level.
type StaticRadio struct {
	Level int8
}

func (r StaticRadio) RSSI() int8 { return r.Level }

// TelemetryService serves the identity and health records. Identity is
// resolved once: the EUI-64 comes from the first hardware MAC, or from a
// persisted generated identifier when the host has none.
type TelemetryService struct {
	cfg   repository.ConfigRepo
	radio RadioStats
	opts  Options
	start time.Time

	idMu  sync.Mutex
	eui64 string // cached after first successful resolution
}

func NewTelemetryService(cfg repository.ConfigRepo, radio RadioStats, opts Options) *TelemetryService {
	return &TelemetryService{
		cfg:   cfg,
		radio: radio,
		opts:  opts,
		start: time.Now(),
	}
}

func (s *TelemetryService) Identity(ctx context.Context) (models.DeviceIdentity, error) {
	s.idMu.Lock()
	if s.eui64 == "" {
		eui, err := s.resolveEUI64(ctx)
		if err != nil {
			s.idMu.Unlock()
			return models.DeviceIdentity{}, err
		}
		s.eui64 = eui
	}
	eui64 := s.eui64
	s.idMu.Unlock()

	return models.DeviceIdentity{
		EUI64:           eui64,
		FirmwareVersion: s.opts.FirmwareVersion,
		UptimeS:         uint32(time.Since(s.start).Seconds()),
	}, nil
}

func (s *TelemetryService) Health() models.DeviceHealth {
	health := models.DeviceHealth{
		RSSI:         s.radio.RSSI(),
		PollPeriodMS: s.opts.PollPeriodMS,
		PowerSource:  s.opts.PowerSource,
		FreeHeap:     freeHeapBytes(),
	}
	if s.opts.PowerSource == models.PowerBattery {
		mv := s.opts.BatteryMV
		health.BatteryMV = &mv
	}
	return health
}

// resolveEUI64 prefers a hardware MAC (extended to EUI-64 when 48-bit).
// Hosts without one fall back to an identifier generated once and kept in
// the config store so it survives restarts.
func (s *TelemetryService) resolveEUI64(ctx context.Context) (string, error) {
	if eui := hardwareEUI64(); eui != "" {
		return eui, nil
	}

	stored, err := s.cfg.EUI64(ctx)
	if err != nil {
		return "", fmt.Errorf("read stored eui64: %w", err)
	}
	if stored != nil {
		return *stored, nil
	}

	generated := formatEUI64(uuid.New().NodeID(), true)
	if err := s.cfg.SetEUI64(ctx, generated); err != nil {
		return "", fmt.Errorf("persist generated eui64: %w", err)
	}
	return generated, nil
}

func hardwareEUI64() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		switch len(iface.HardwareAddr) {
		case 6:
			return formatEUI64(iface.HardwareAddr, true)
		case 8:
			return formatEUI64(iface.HardwareAddr, false)
		}
	}
	return ""
}

// formatEUI64 renders 8 bytes as colon-separated hex. A 6-byte MAC is
// extended with the standard ff:fe middle pair.
func formatEUI64(addr []byte, extend bool) string {
	b := make([]byte, 0, 8)
	if extend && len(addr) >= 6 {
		b = append(b, addr[:3]...)
		b = append(b, 0xff, 0xfe)
		b = append(b, addr[3:6]...)
	} else {
		b = append(b, addr...)
	}
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}

func freeHeapBytes() uint32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	free := m.HeapSys - m.HeapAlloc
	if free > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(free)
}
