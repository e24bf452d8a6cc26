// Package wire implements the byte-exact codecs for the control and status
// datagrams exchanged between a driver station and a robot controller, and
// for the framed tags carried over the reliable stream.
package wire

import "fmt"

// Alliance is a single-byte alliance/station position in [0,5]. Values 0-2
// are red stations 1-3; 3-5 are blue stations 1-3.
type Alliance uint8

// Recognized alliance positions.
const (
	Red1 Alliance = iota
	Red2
	Red3
	Blue1
	Blue2
	Blue3
)

// IsBlue reports whether the alliance position is on the blue side.
func (a Alliance) IsBlue() bool {
	return a >= Blue1
}

// Station returns the 1-indexed station number within the alliance (1-3).
func (a Alliance) Station() int {
	if a.IsBlue() {
		return int(a-Blue1) + 1
	}
	return int(a) + 1
}

func (a Alliance) String() string {
	side := "Red"
	if a.IsBlue() {
		side = "Blue"
	}
	return fmt.Sprintf("%s%d", side, a.Station())
}

// Mode is the robot's operating mode, orthogonal to enabled/estopped.
type Mode uint8

const (
	ModeTeleoperated Mode = iota
	ModeTest
	ModeAutonomous
)

// controlCode returns the 2-bit mode encoding used in the outbound control
// byte: TELEOP=00, TEST=01, AUTO=10.
func (m Mode) controlCode() byte {
	switch m {
	case ModeTest:
		return 0x01
	case ModeAutonomous:
		return 0x02
	default:
		return 0x00
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAutonomous:
		return "Autonomous"
	case ModeTest:
		return "Test"
	default:
		return "Teleoperated"
	}
}

// ModeFromStatusCode decodes the low two bits of a status byte into a Mode.
// The bit patterns mirror the outbound control byte's encoding.
func ModeFromStatusCode(status byte) Mode {
	switch status & 0x03 {
	case 0x01:
		return ModeTest
	case 0x02:
		return ModeAutonomous
	default:
		return ModeTeleoperated
	}
}

// Control byte bitmask (outbound).
const (
	ControlEstop        byte = 0x80
	ControlFMSConnected byte = 0x08
	ControlEnabled      byte = 0x04
	controlModeMask     byte = 0x03
)

// Status byte bitmask (inbound).
const (
	StatusEstop      byte = 0x80
	StatusBrownout   byte = 0x10
	StatusCodeStart  byte = 0x08
	StatusEnabled    byte = 0x04
	statusModeMask   byte = 0x03
)

// Trace byte bitmask (inbound).
const (
	TraceRobotCode   byte = 0x20
	TraceIsController byte = 0x10
	TraceTestMode    byte = 0x08
	TraceAutonomous  byte = 0x04
	TraceTeleop      byte = 0x02
	TraceDisabled    byte = 0x01
)

// Request byte bitmask (outbound). At most one may be set.
const (
	RequestNone        byte = 0x00
	RequestRestartCode byte = 0x04
	RequestReboot      byte = 0x08
)

// ProtocolVersion is the constant protocol-version byte carried in every
// control datagram.
const ProtocolVersion byte = 0x01

// JoystickValue is a tagged variant describing a single axis, button, or POV
// update from a joystick supplier.
type JoystickValue interface {
	isJoystickValue()
}

// Axis is a joystick axis reading in [-1,1] for axis id 0-5.
type Axis struct {
	ID    uint8
	Value float32
}

func (Axis) isJoystickValue() {}

// Button is a joystick button state for button id 1-10.
type Button struct {
	ID      uint8
	Pressed bool
}

func (Button) isJoystickValue() {}

// POV is a point-of-view (d-pad) reading for pov id 0. Angle is -1 when
// centered/unpressed.
type POV struct {
	ID    uint8
	Angle int16
}

func (POV) isJoystickValue() {}
