package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeReliable_GameData(t *testing.T) {
	frame := EncodeReliable(GameData{Message: "ABC"})
	require.Equal(t, []byte{0x00, 0x04, 0x0E, 'A', 'B', 'C'}, frame)
}

func TestEncodeReliable_MatchInfo(t *testing.T) {
	frame := EncodeReliable(MatchInfo{
		EventName:    "CMP",
		Type:         MatchTypeElimination,
		MatchNumber:  12,
		ReplayNumber: 0,
	})
	id := frame[2]
	require.Equal(t, ReliableTagMatchInfo, id)
	payload := frame[3:]
	require.Equal(t, byte(3), payload[0])
	require.Equal(t, "CMP", string(payload[1:4]))
	require.Equal(t, byte(MatchTypeElimination), payload[4])
}

func TestFrameReader_ReadsStdoutFrame(t *testing.T) {
	msg := StdoutMessage{Timestamp: 1.5, Seqnum: 7, Message: "hello"}
	buf := new(bytes.Buffer)
	// manually build a stdout frame: [len][0x0C][ts][seq][msg]
	body := append([]byte{ReliableInTagStdout}, floatBytes(msg.Timestamp)...)
	body = append(body, byte(msg.Seqnum>>8), byte(msg.Seqnum))
	body = append(body, []byte(msg.Message)...)

	writeFrame(buf, body)

	r := NewFrameReader(buf)
	frame, err := r.ReadFrame()
	require.NoError(t, err)
	require.NotNil(t, frame.Stdout)
	require.Equal(t, "hello", frame.Stdout.Message)
	require.Equal(t, uint16(7), frame.Stdout.Seqnum)
	require.InDelta(t, 1.5, frame.Stdout.Timestamp, 1e-6)
}

func TestFrameReader_UnknownIDIsDummy(t *testing.T) {
	buf := new(bytes.Buffer)
	writeFrame(buf, []byte{0xAB, 0x01, 0x02})

	r := NewFrameReader(buf)
	frame, err := r.ReadFrame()
	require.NoError(t, err)
	require.True(t, frame.Dummy)
	require.Nil(t, frame.Stdout)
}

func TestFrameReader_PartialReadsAccumulate(t *testing.T) {
	full := new(bytes.Buffer)
	writeFrame(full, []byte{0xAB, 0x01})
	data := full.Bytes()

	pr := &chunkReader{chunks: [][]byte{data[:2], data[2:4], data[4:]}}
	r := NewFrameReader(pr)
	frame, err := r.ReadFrame()
	require.NoError(t, err)
	require.True(t, frame.Dummy)
}

func writeFrame(buf *bytes.Buffer, body []byte) {
	length := len(body)
	buf.WriteByte(byte(length >> 8))
	buf.WriteByte(byte(length))
	buf.Write(body)
}

func floatBytes(f float32) []byte {
	p := Countdown{SecondsRemaining: f}.payload()
	return p
}

// chunkReader feeds back its chunks one Read() call at a time, simulating
// a stream that delivers a frame across several partial reads.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, errEOFChunks
	}
	n := copy(p, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

var errEOFChunks = errEOF{}

type errEOF struct{}

func (errEOF) Error() string { return "chunkReader: exhausted" }
