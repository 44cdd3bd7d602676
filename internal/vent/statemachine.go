package vent

// Mechanical limits of the flap in servo degrees.
const (
	AngleClosed uint8 = 90
	AngleOpen   uint8 = 180
)

// State is the logical flap state derived from current and target angle.
// Values match the wire encoding (integer enum, 0-indexed).
type State uint8

const (
	StateOpen State = iota
	StateClosed
	StatePartial
	StateMoving
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StatePartial:
		return "partial"
	case StateMoving:
		return "moving"
	default:
		return "unknown"
	}
}

// StateForAngle derives the resting state for an angle (no movement).
func StateForAngle(angle uint8) State {
	switch angle {
	case AngleClosed:
		return StateClosed
	case AngleOpen:
		return StateOpen
	default:
		return StatePartial
	}
}

// ClampAngle clamps an angle into [AngleClosed, AngleOpen]. Out-of-range
// input is never rejected anywhere in the controller; it degrades to the
// nearest mechanical limit.
func ClampAngle(angle uint8) uint8 {
	if angle < AngleClosed {
		return AngleClosed
	}
	if angle > AngleOpen {
		return AngleOpen
	}
	return angle
}

// StateMachine tracks the flap position and its commanded target. Both
// fields are always within [AngleClosed, AngleOpen]. It is not safe for
// concurrent use; callers serialize access through the service gate.
type StateMachine struct {
	currentAngle uint8
	targetAngle  uint8
}

// NewStateMachine creates a machine at rest at the (clamped) initial angle.
func NewStateMachine(initialAngle uint8) *StateMachine {
	angle := ClampAngle(initialAngle)
	return &StateMachine{currentAngle: angle, targetAngle: angle}
}

func (m *StateMachine) CurrentAngle() uint8 { return m.currentAngle }

func (m *StateMachine) TargetAngle() uint8 { return m.targetAngle }

// State derives the logical state. Moving wins whenever current != target.
func (m *StateMachine) State() State {
	if m.currentAngle != m.targetAngle {
		return StateMoving
	}
	return StateForAngle(m.currentAngle)
}

// SetTarget replaces the target with the clamped angle and returns the
// angle that was current immediately before the call. Calling this while a
// move is in progress redirects it; Step re-evaluates direction every call,
// so no cancellation primitive exists.
func (m *StateMachine) SetTarget(angle uint8) uint8 {
	prev := m.currentAngle
	m.targetAngle = ClampAngle(angle)
	return prev
}

// Step advances the current angle one degree toward the target. Returns
// true iff the current angle changed; callers re-test IsMoving to detect
// completion.
func (m *StateMachine) Step() bool {
	switch {
	case m.currentAngle < m.targetAngle:
		m.currentAngle++
		return true
	case m.currentAngle > m.targetAngle:
		m.currentAngle--
		return true
	default:
		return false
	}
}

// IsMoving reports whether the flap has not yet reached its target.
func (m *StateMachine) IsMoving() bool {
	return m.currentAngle != m.targetAngle
}
