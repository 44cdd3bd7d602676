// Package actuator abstracts the physical flap servo. The capability is
// fire-and-forget: it accepts an angle and gives no durability guarantee;
// position is only held while the device is powered and commanded. All
// durability lives in the checkpoint store.
package actuator

import "vent_controller/internal/logger"

// Actuator pushes a desired angle to hardware.
type Actuator interface {
	SetAngle(angle uint8) error
	Close() error
}

// LogServo is the simulated actuator used when no PWM chip is configured:
// it just logs angle changes. Tests and non-device deployments run on it.
type LogServo struct {
	log *logger.Logger
}

func NewLogServo(log *logger.Logger) *LogServo {
	return &LogServo{log: log}
}

func (s *LogServo) SetAngle(angle uint8) error {
	if s.log != nil {
		s.log.Debugw("servo_set_angle", "angle", angle)
	}
	return nil
}

func (s *LogServo) Close() error { return nil }
