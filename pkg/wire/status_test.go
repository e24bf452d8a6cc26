package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeStatus_S4(t *testing.T) {
	buf := []byte{0x00, 0x2A, 0x01, 0x04, 0x21, 0x0C, 0x80, 0x00}
	p, consumed, err := DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, uint16(42), p.Seqnum)
	require.Equal(t, byte(0x04), p.Status)
	require.Equal(t, byte(0x21), p.Trace)
	require.InDelta(t, 12.5, p.Battery, 1e-6)
	require.False(t, p.NeedDate)
	require.True(t, p.Enabled())
	require.False(t, p.Estopped())
	require.True(t, p.Trace&TraceRobotCode != 0)
}

func TestDecodeStatus_NeedDate(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01}
	p, _, err := DecodeStatus(buf)
	require.NoError(t, err)
	require.True(t, p.NeedDate)
}

func TestDecodeStatus_SkipsKnownInboundTags(t *testing.T) {
	header := []byte{0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	ramTag := append([]byte{0x06}, make([]byte, 8)...)
	buf := append(append([]byte(nil), header...), ramTag...)
	_, consumed, err := DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
}

func TestDecodeStatus_StopsAtUnknownTag(t *testing.T) {
	header := []byte{0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	unknown := []byte{0xFF, 0x01, 0x02}
	buf := append(append([]byte(nil), header...), unknown...)
	_, consumed, err := DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, statusHeaderLen, consumed)
}

func TestDecodeStatus_TooShort(t *testing.T) {
	_, _, err := DecodeStatus([]byte{0x00, 0x01})
	require.Error(t, err)
}

func TestModeFromStatusCode(t *testing.T) {
	require.Equal(t, ModeTeleoperated, ModeFromStatusCode(0x00))
	require.Equal(t, ModeTest, ModeFromStatusCode(0x01))
	require.Equal(t, ModeAutonomous, ModeFromStatusCode(0x02))
}
