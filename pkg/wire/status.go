package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
)

// StatusPacket is the inbound status datagram received from the controller.
type StatusPacket struct {
	Seqnum   uint16
	Status   byte
	Trace    byte
	Battery  float32
	NeedDate bool
}

// Mode reports the operating mode encoded in the status byte.
func (p StatusPacket) Mode() Mode {
	return ModeFromStatusCode(p.Status)
}

// Enabled reports whether the controller believes the robot is enabled.
func (p StatusPacket) Enabled() bool {
	return p.Status&StatusEnabled != 0
}

// Estopped reports whether the controller believes the robot is e-stopped.
func (p StatusPacket) Estopped() bool {
	return p.Status&StatusEstop != 0
}

// inboundTagSizes gives the fixed payload size (bytes after the id byte) for
// each recognized inbound tag id. These payloads are never semantically
// decoded, only skipped so parsing can continue.
var inboundTagSizes = map[byte]int{
	0x01: 8,  // joystick output
	0x04: 4,  // disk
	0x05: 20, // cpu
	0x06: 8,  // ram
	0x08: 25, // pdp log
	0x09: 9,  // unknown
	0x0E: 14, // CAN metrics
}

const statusHeaderLen = 8

// DecodeStatus parses a status datagram, returning the decoded packet and
// the number of bytes consumed. Trailing inbound tags are consumed by id
// using the fixed sizes in inboundTagSizes; the first unrecognized id
// terminates tag parsing (the remaining bytes, if any, are simply not
// consumed further).
func DecodeStatus(buf []byte) (StatusPacket, int, error) {
	if len(buf) < statusHeaderLen {
		return StatusPacket{}, 0, fmt.Errorf("wire: %w: status packet too short: %d bytes", dserr.ErrDecode, len(buf))
	}

	p := StatusPacket{
		Seqnum:   binary.BigEndian.Uint16(buf[0:2]),
		Status:   buf[3],
		Trace:    buf[4],
		Battery:  float32(buf[5]) + float32(buf[6])/256.0,
		NeedDate: buf[7] == 1,
	}

	consumed := statusHeaderLen
	rest := buf[statusHeaderLen:]
	for len(rest) > 0 {
		id := rest[0]
		size, ok := inboundTagSizes[id]
		if !ok {
			break
		}
		if len(rest) < 1+size {
			break
		}
		consumed += 1 + size
		rest = rest[1+size:]
	}

	return p, consumed, nil
}
