package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
)

// maxReliableFrame bounds how large a single reliable-stream frame is
// allowed to be, guarding against a corrupt length prefix turning into an
// unbounded allocation.
const maxReliableFrame = 1 << 16

// FrameReader reads length-prefixed reliable-stream frames off a stream,
// preserving partial reads across timeout-driven calls. Grounded on the
// StreamFramer shape used for Meshtastic's magic-byte framing, adapted to
// this protocol's [length:u16][id][payload] layout.
type FrameReader struct {
	r          io.Reader
	readBuffer []byte
	readPos    int
}

// NewFrameReader constructs a FrameReader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:          r,
		readBuffer: make([]byte, reliableFrameHeaderLen+maxReliableFrame),
	}
}

// ReadFrame reads one complete frame and returns its decoded contents. It
// returns the underlying read error (including timeouts) unchanged so
// callers can distinguish a timeout from a real disconnect; on a timeout
// with a partial frame buffered, the partial bytes are preserved for the
// next call.
func (f *FrameReader) ReadFrame() (ReliableFrame, error) {
	for f.readPos < 2 {
		n, err := f.r.Read(f.readBuffer[f.readPos:])
		if n > 0 {
			f.readPos += n
		}
		if err != nil {
			return ReliableFrame{}, err
		}
	}

	length := binary.BigEndian.Uint16(f.readBuffer[0:2])
	if int(length) > maxReliableFrame {
		f.readPos = 0
		return ReliableFrame{}, fmt.Errorf("wire: %w: reliable frame too large: %d", dserr.ErrDecode, length)
	}

	total := 2 + int(length)
	for f.readPos < total {
		n, err := f.r.Read(f.readBuffer[f.readPos:])
		if n > 0 {
			f.readPos += n
		}
		if err != nil {
			return ReliableFrame{}, err
		}
	}

	body := append([]byte(nil), f.readBuffer[2:total]...)

	remaining := f.readPos - total
	if remaining > 0 {
		copy(f.readBuffer, f.readBuffer[total:f.readPos])
	}
	f.readPos = remaining

	return DecodeReliableFrame(body)
}

// IsTemporary reports whether err represents a read timeout that should not
// be treated as a fatal stream error.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	return err == os.ErrDeadlineExceeded
}
