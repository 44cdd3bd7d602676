package actuator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SG90 servo PWM parameters: 50 Hz, 500–2500 µs pulse across 0–180°.
const (
	periodNS   = 20_000_000 // 50 Hz
	minPulseNS = 500_000    // 0°
	maxPulseNS = 2_500_000  // 180°
)

// PWMServo drives a hobby servo through the Linux sysfs PWM interface
// (/sys/class/pwm/pwmchipN/pwmM). Export and period setup happen once in
// OpenPWMServo; SetAngle only rewrites duty_cycle.
type PWMServo struct {
	channelDir string
}

// OpenPWMServo exports the channel on the given chip and configures the
// servo period. sysfsRoot is /sys/class/pwm in production; tests point it
// at a scratch directory.
func OpenPWMServo(sysfsRoot string, chip, channel int) (*PWMServo, error) {
	chipDir := filepath.Join(sysfsRoot, fmt.Sprintf("pwmchip%d", chip))
	channelDir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	if _, err := os.Stat(channelDir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, err)
		}
	}

	s := &PWMServo{channelDir: channelDir}
	if err := writeSysfs(filepath.Join(channelDir, "period"), strconv.Itoa(periodNS)); err != nil {
		return nil, fmt.Errorf("set pwm period: %w", err)
	}
	if err := writeSysfs(filepath.Join(channelDir, "enable"), "1"); err != nil {
		return nil, fmt.Errorf("enable pwm: %w", err)
	}
	return s, nil
}

// SetAngle writes the duty cycle for the given angle (0–180 degrees).
func (s *PWMServo) SetAngle(angle uint8) error {
	pulse := angleToPulseNS(angle)
	if err := writeSysfs(filepath.Join(s.channelDir, "duty_cycle"), strconv.Itoa(pulse)); err != nil {
		return fmt.Errorf("set pwm duty cycle: %w", err)
	}
	return nil
}

// Close drops the duty cycle to zero so the servo stops holding position,
// then disables the channel.
func (s *PWMServo) Close() error {
	if err := writeSysfs(filepath.Join(s.channelDir, "duty_cycle"), "0"); err != nil {
		return err
	}
	return writeSysfs(filepath.Join(s.channelDir, "enable"), "0")
}

// angleToPulseNS converts an angle (0–180) to a pulse width in
// nanoseconds.
func angleToPulseNS(angle uint8) int {
	if angle > 180 {
		angle = 180
	}
	return minPulseNS + int(angle)*(maxPulseNS-minPulseNS)/180
}

func writeSysfs(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
