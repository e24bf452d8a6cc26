package wire

import (
	"encoding/binary"
	"math"
)

// Outbound tag ids.
const (
	TagCountdown byte = 0x07
	TagJoysticks byte = 0x0C
	TagDateTime  byte = 0x0F
	TagTimezone  byte = 0x10
)

// OutboundTag is the closed tagged-union of control-datagram tags. Each
// concrete type knows its own wire id and payload encoding; encodeTag wraps
// that payload in the shared [length-1][id][payload] framing.
type OutboundTag interface {
	tagID() byte
	payload() []byte
}

func encodeTag(t OutboundTag) []byte {
	p := t.payload()
	buf := make([]byte, 2+len(p))
	buf[0] = byte(1 + len(p))
	buf[1] = t.tagID()
	copy(buf[2:], p)
	return buf
}

// Countdown carries the seconds remaining in the current match period.
type Countdown struct {
	SecondsRemaining float32
}

func (Countdown) tagID() byte { return TagCountdown }

func (c Countdown) payload() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(c.SecondsRemaining))
	return buf
}

// numAxes, numButtons, numPOVs are the fixed slot counts the wire format
// always transmits, regardless of how many joystick values were actually
// supplied.
const (
	numAxes    = 6
	numButtons = 10
	numPOVs    = 1

	// buttonBytesLenConstant is transmitted verbatim regardless of the
	// number of button-packing bytes that actually follow (2, for 10
	// button slots); controllers expect this fixed value rather than the
	// true byte count.
	buttonBytesLenConstant = 10
)

// Joysticks carries one joystick's full axis/button/POV state. Axes default
// to 0, buttons default to false, and the single POV defaults to -1; any
// out-of-range id supplied to the constructor is ignored.
type Joysticks struct {
	Axes    [numAxes]int8
	Buttons [numButtons]bool
	POVs    [numPOVs]int16
}

// NewJoysticks builds a Joysticks tag from a set of per-port values,
// applying defaults for anything not present and silently dropping
// out-of-range ids.
func NewJoysticks(values []JoystickValue) Joysticks {
	j := Joysticks{}
	for i := range j.POVs {
		j.POVs[i] = -1
	}
	for _, v := range values {
		switch val := v.(type) {
		case Axis:
			if int(val.ID) < numAxes {
				j.Axes[val.ID] = encodeAxis(val.Value)
			}
		case Button:
			// Button ids are 1-10; slot index is id-1.
			if val.ID >= 1 && int(val.ID) <= numButtons {
				j.Buttons[val.ID-1] = val.Pressed
			}
		case POV:
			if int(val.ID) < numPOVs {
				j.POVs[val.ID] = val.Angle
			}
		}
	}
	return j
}

// encodeAxis maps a float axis value in [-1,1] to the wire's signed byte
// representation. Values within epsilon of 1.0 encode as 127, since 1.0*128
// does not fit in an int8; every other value encodes as floor(v*128).
func encodeAxis(v float32) int8 {
	const epsilon = 1.1920929e-7 // float32 machine epsilon
	if v-1.0 < epsilon && v-1.0 > -epsilon {
		return 127
	}
	return int8(math.Floor(float64(v) * 128))
}

func (Joysticks) tagID() byte { return TagJoysticks }

func (j Joysticks) payload() []byte {
	buf := make([]byte, 0, 1+numAxes+1+2+1+2*numPOVs)
	buf = append(buf, numAxes)
	for _, a := range j.Axes {
		buf = append(buf, byte(a))
	}
	buf = append(buf, buttonBytesLenConstant)
	buf = append(buf, packButtons(j.Buttons[:])...)
	buf = append(buf, numPOVs)
	for _, p := range j.POVs {
		buf = binary.BigEndian.AppendUint16(buf, uint16(p))
	}
	return buf
}

// packButtons packs booleans into bytes in groups of eight. Within a group
// the first boolean occupies the most-significant bit and the eighth the
// least-significant bit; missing trailing booleans in the final group
// default to false.
func packButtons(bools []bool) []byte {
	out := make([]byte, 0, (len(bools)+7)/8)
	for i := 0; i < len(bools); i += 8 {
		var b byte
		for j := i; j < i+8; j++ {
			b <<= 1
			if j < len(bools) && bools[j] {
				b |= 1
			}
		}
		out = append(out, b)
	}
	return out
}

// DateTime carries the current UTC moment, used to answer a need_date
// request from the controller.
type DateTime struct {
	Micros      uint32
	Second      uint8
	Minute      uint8
	Hour        uint8
	Day         uint8
	Month0Based uint8
	YearSince1900 uint8
}

func (DateTime) tagID() byte { return TagDateTime }

func (d DateTime) payload() []byte {
	buf := make([]byte, 10)
	binary.BigEndian.PutUint32(buf[0:4], d.Micros)
	buf[4] = d.Second
	buf[5] = d.Minute
	buf[6] = d.Hour
	buf[7] = d.Day
	buf[8] = d.Month0Based
	buf[9] = d.YearSince1900
	return buf
}

// Timezone carries a free-form IANA zone name, sent out-of-band alongside
// DateTime when the controller requests the current date.
type Timezone struct {
	Name string
}

func (Timezone) tagID() byte { return TagTimezone }

func (t Timezone) payload() []byte {
	return []byte(t.Name)
}
