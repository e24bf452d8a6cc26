package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldcontrol/ds-client/pkg/wire"
)

func TestReceiveState_ApplyAndLast(t *testing.T) {
	r := NewReceiveState()
	_, ok := r.Last()
	require.False(t, ok)

	now := time.Unix(1000, 0)
	p := wire.StatusPacket{Seqnum: 1, Status: 0x04, Trace: wire.TraceRobotCode | wire.TraceIsController, Battery: 12.3}
	r.Apply(p, now)

	got, ok := r.Last()
	require.True(t, ok)
	require.Equal(t, p, got)
	require.Equal(t, now, r.LastSeen())
	require.InDelta(t, 12.3, r.Battery(), 1e-5)
	require.True(t, r.RobotCodeRunning())
	require.True(t, r.IsController())
}

func TestReceiveState_DerivedFlagsClear(t *testing.T) {
	r := NewReceiveState()
	r.Apply(wire.StatusPacket{Trace: 0x00}, time.Unix(1, 0))
	require.False(t, r.RobotCodeRunning())
	require.False(t, r.IsController())
}

func TestReceiveState_Reset(t *testing.T) {
	r := NewReceiveState()
	r.Apply(wire.StatusPacket{Battery: 11}, time.Unix(1, 0))
	r.Reset()
	_, ok := r.Last()
	require.False(t, ok)
	require.Equal(t, float32(0), r.Battery())
}
