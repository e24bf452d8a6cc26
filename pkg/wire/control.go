package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
)

// ControlPacket is the outbound control datagram sent from the driver
// station to the controller every 20ms.
type ControlPacket struct {
	Seqnum   uint16
	Control  byte
	Request  byte
	Alliance Alliance
	Tags     []OutboundTag
}

// BuildControl byte from mode, enabled, and estopped flags, per §3/§4.4.
func BuildControlByte(mode Mode, enabled, estopped bool) byte {
	b := mode.controlCode()
	if enabled {
		b |= ControlEnabled
	}
	if estopped {
		b |= ControlEstop
	}
	return b
}

// EncodeControl renders a ControlPacket to its big-endian wire form.
func EncodeControl(p ControlPacket) []byte {
	buf := make([]byte, 6, 6+estimateTagBytes(p.Tags))
	binary.BigEndian.PutUint16(buf[0:2], p.Seqnum)
	buf[2] = ProtocolVersion
	buf[3] = p.Control
	buf[4] = p.Request
	buf[5] = byte(p.Alliance)
	for _, t := range p.Tags {
		buf = append(buf, encodeTag(t)...)
	}
	return buf
}

func estimateTagBytes(tags []OutboundTag) int {
	n := 0
	for _, t := range tags {
		n += 2 + len(t.payload())
	}
	return n
}

// DecodedControlPacket is the result of parsing a control datagram back into
// its fields, used by codec round-trip tests; the controller itself never
// needs to decode what it receives, but the driver station's own test suite
// verifies Decode(Encode(p)) == p for fixture coverage (§8 property 5).
type DecodedControlPacket struct {
	Seqnum   uint16
	Control  byte
	Request  byte
	Alliance Alliance
	Tags     []RawTag
}

// RawTag is an undecoded [id, payload] pair read back off the wire.
type RawTag struct {
	ID      byte
	Payload []byte
}

// DecodeControl parses a control datagram into its fixed header fields and
// the raw (id, payload) tag stream that followed it.
func DecodeControl(buf []byte) (DecodedControlPacket, error) {
	if len(buf) < 6 {
		return DecodedControlPacket{}, fmt.Errorf("wire: control packet too short: %d bytes", len(buf))
	}
	p := DecodedControlPacket{
		Seqnum:   binary.BigEndian.Uint16(buf[0:2]),
		Control:  buf[3],
		Request:  buf[4],
		Alliance: Alliance(buf[5]),
	}
	rest := buf[6:]
	for len(rest) > 0 {
		lenMinus1 := rest[0]
		total := int(lenMinus1) + 1
		if total > len(rest) {
			return p, fmt.Errorf("wire: %w: truncated control tag", dserr.ErrDecode)
		}
		p.Tags = append(p.Tags, RawTag{ID: rest[1], Payload: append([]byte(nil), rest[2:total]...)})
		rest = rest[total:]
	}
	return p, nil
}
