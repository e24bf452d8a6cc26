package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
)

// Reliable outbound tag ids.
const (
	ReliableTagMatchInfo byte = 0x07
	ReliableTagGameData  byte = 0x0E
)

// Reliable inbound tag ids.
const (
	ReliableInTagStdout byte = 0x0C
)

// ReliableOutboundTag is the closed union of tags carried over the reliable
// stream from the driver station to the controller.
type ReliableOutboundTag interface {
	reliableTagID() byte
	reliablePayload() []byte
}

// EncodeReliable renders a ReliableOutboundTag as a
// [length:u16][id][payload] frame, where length counts id+payload.
func EncodeReliable(t ReliableOutboundTag) []byte {
	p := t.reliablePayload()
	buf := make([]byte, 3+len(p))
	binary.BigEndian.PutUint16(buf[0:2], uint16(1+len(p)))
	buf[2] = t.reliableTagID()
	copy(buf[3:], p)
	return buf
}

// GameData carries the game-specific message, which must be exactly three
// characters; construction is validated by the caller (the driverstation
// facade), not here, so this type always carries a well-formed value.
type GameData struct {
	Message string
}

func (GameData) reliableTagID() byte    { return ReliableTagGameData }
func (g GameData) reliablePayload() []byte { return []byte(g.Message) }

// MatchType enumerates the kind of match MatchInfo describes.
type MatchType uint8

const (
	MatchTypePractice      MatchType = 1
	MatchTypeQualification MatchType = 2
	MatchTypeElimination   MatchType = 3
)

// MatchInfo carries event metadata over the reliable stream.
type MatchInfo struct {
	EventName    string
	Type         MatchType
	MatchNumber  uint16
	ReplayNumber uint8
}

func (MatchInfo) reliableTagID() byte { return ReliableTagMatchInfo }

func (m MatchInfo) reliablePayload() []byte {
	name := []byte(m.EventName)
	if len(name) > 255 {
		name = name[:255]
	}
	buf := make([]byte, 0, 1+len(name)+1+2+1)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, byte(m.Type))
	buf = binary.BigEndian.AppendUint16(buf, m.MatchNumber)
	buf = append(buf, m.ReplayNumber)
	return buf
}

// ReliableFrame is a decoded inbound reliable-stream frame. Dummy is true
// when the frame carried an unrecognized id; its bytes were drained but not
// interpreted, and Stdout is left unset.
type ReliableFrame struct {
	Dummy  bool
	Stdout *StdoutMessage
}

// StdoutMessage is the decoded payload of a reliable Stdout frame.
type StdoutMessage struct {
	Timestamp float32
	Seqnum    uint16
	Message   string
}

const reliableFrameHeaderLen = 3 // length(2) + id(1)

// ReadReliableFrameLength reads the 2-byte big-endian length prefix of a
// reliable-stream frame from a header buffer of at least 2 bytes.
func ReadReliableFrameLength(header []byte) (uint16, error) {
	if len(header) < 2 {
		return 0, fmt.Errorf("wire: %w: short reliable frame header", dserr.ErrDecode)
	}
	return binary.BigEndian.Uint16(header[0:2]), nil
}

// DecodeReliableFrame parses the id+payload portion of a reliable-stream
// frame (i.e. everything after the 2-byte length prefix, length bytes long).
func DecodeReliableFrame(body []byte) (ReliableFrame, error) {
	if len(body) < 1 {
		return ReliableFrame{}, fmt.Errorf("wire: %w: empty reliable frame body", dserr.ErrDecode)
	}
	id := body[0]
	payload := body[1:]

	switch id {
	case ReliableInTagStdout:
		if len(payload) < 6 {
			return ReliableFrame{}, fmt.Errorf("wire: %w: stdout frame too short", dserr.ErrDecode)
		}
		ts := math.Float32frombits(binary.BigEndian.Uint32(payload[0:4]))
		seq := binary.BigEndian.Uint16(payload[4:6])
		msg := string(payload[6:])
		return ReliableFrame{Stdout: &StdoutMessage{Timestamp: ts, Seqnum: seq, Message: msg}}, nil
	default:
		return ReliableFrame{Dummy: true}, nil
	}
}
