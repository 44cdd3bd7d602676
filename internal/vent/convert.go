package vent

// The secondary control surface speaks Window-Covering style hundredths of
// a percent: 0 = fully open (180°), 10000 = fully closed (90°). Both
// conversions use integer floor division, so a round trip may be off by at
// most one unit in either domain.

const percentClosed = 10000

// AngleToPercent converts a servo angle to percent100ths. The angle is
// clamped into [AngleClosed, AngleOpen] first. Intermediate math is 32-bit:
// fromOpen*10000 does not fit in 16 bits.
func AngleToPercent(angle uint8) uint16 {
	clamped := ClampAngle(angle)
	angleRange := uint32(AngleOpen - AngleClosed)
	fromOpen := uint32(AngleOpen - clamped)
	return uint16(fromOpen * percentClosed / angleRange)
}

// PercentToAngle converts percent100ths to a servo angle. The percentage is
// clamped into [0, 10000] first.
func PercentToAngle(pct uint16) uint8 {
	if pct > percentClosed {
		pct = percentClosed
	}
	angleRange := uint32(AngleOpen - AngleClosed)
	fromOpen := uint32(pct) * angleRange / percentClosed
	return AngleOpen - uint8(fromOpen)
}
