package vehicle

import (
	"fmt"
	"strings"
)

// ControlMode selects where a vehicle's control flags come from.
type ControlMode int

const (
	// Manual vehicles take their flags from an external input source.
	Manual ControlMode = iota
	// Autonomous vehicles derive their flags from sensor readings through
	// their network every tick.
	Autonomous
	// ConstantForward vehicles always accelerate and serve as traffic.
	ConstantForward
)

func (m ControlMode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Autonomous:
		return "autonomous"
	case ConstantForward:
		return "constant_forward"
	default:
		return fmt.Sprintf("ControlMode(%d)", int(m))
	}
}

func (m ControlMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ControlMode) UnmarshalText(text []byte) error {
	parsed, err := ParseControlMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseControlMode accepts the mode names plus the short keys/ai/dummy aliases.
func ParseControlMode(name string) (ControlMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "manual", "keys":
		return Manual, nil
	case "autonomous", "ai":
		return Autonomous, nil
	case "constant_forward", "constant-forward", "dummy":
		return ConstantForward, nil
	default:
		return 0, fmt.Errorf("unsupported control mode: %s", name)
	}
}

// ControlCount is the number of network outputs an autonomous vehicle reads:
// forward, left, right, reverse.
const ControlCount = 4

type Controls struct {
	Forward bool `json:"forward"`
	Left    bool `json:"left"`
	Right   bool `json:"right"`
	Reverse bool `json:"reverse"`
}

func controlsFromOutputs(outputs []float64) Controls {
	return Controls{
		Forward: outputs[0] > 0,
		Left:    outputs[1] > 0,
		Right:   outputs[2] > 0,
		Reverse: outputs[3] > 0,
	}
}
