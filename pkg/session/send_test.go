package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldcontrol/ds-client/pkg/wire"
)

func TestSendState_BuildControlPacket_Defaults(t *testing.T) {
	s := NewSendState(wire.Red1)
	p := s.BuildControlPacket()
	require.Equal(t, uint16(0), p.Seqnum)
	require.Equal(t, wire.BuildControlByte(wire.ModeAutonomous, false, false), p.Control)
	require.Equal(t, wire.RequestNone, p.Request)
	require.Equal(t, wire.Red1, p.Alliance)
	require.Empty(t, p.Tags)
}

func TestSendState_EnableDisable(t *testing.T) {
	s := NewSendState(wire.Red1)
	require.False(t, s.Enabled())
	s.Enable()
	require.True(t, s.Enabled())
	s.Disable()
	require.False(t, s.Enabled())
}

func TestSendState_EstopOverridesEnable(t *testing.T) {
	s := NewSendState(wire.Red1)
	s.Enable()
	require.True(t, s.Enabled())
	s.Estop()
	require.True(t, s.Estopped())
	require.False(t, s.Enabled())

	// Enable() must be refused while estopped.
	s.Enable()
	require.False(t, s.Enabled())
}

func TestSendState_EstopClearsOnlyOnRobotCodeRestart(t *testing.T) {
	s := NewSendState(wire.Red1)
	s.Estop()
	require.True(t, s.Estopped())

	// A controller-reported estop clear alone should not clear the latch.
	s.MaybeLatchFromStatusEstop(false)
	require.True(t, s.Estopped())

	// Observing ROBOT_CODE still set does not clear it either.
	s.ObserveTraceForEstopClear(wire.TraceRobotCode)
	require.True(t, s.Estopped())

	// Only a trace byte with ROBOT_CODE cleared (a code restart) clears it.
	s.ObserveTraceForEstopClear(0x00)
	require.False(t, s.Estopped())
}

func TestSendState_EstopGraceWindow(t *testing.T) {
	s := NewSendState(wire.Red1)
	s.Estop()

	for i := 0; i < EstopGraceIterations; i++ {
		active := s.TickEstopGrace()
		if i < EstopGraceIterations-1 {
			require.True(t, active, "grace window should still be active at iteration %d", i)
		} else {
			require.False(t, active)
		}
	}
}

func TestSendState_QueueTagAndRequestDrain(t *testing.T) {
	s := NewSendState(wire.Blue2)
	s.QueueTag(wire.Countdown{SecondsRemaining: 10})
	s.Request(wire.RequestRestartCode)

	p := s.BuildControlPacket()
	require.Len(t, p.Tags, 1)
	require.Equal(t, wire.RequestRestartCode, p.Request)

	// Both the tag queue and the request are one-shot: a second build sees
	// neither.
	p2 := s.BuildControlPacket()
	require.Empty(t, p2.Tags)
	require.Equal(t, wire.RequestNone, p2.Request)
}

func TestSendState_JoystickSupplierAppendsTags(t *testing.T) {
	s := NewSendState(wire.Red1)
	s.SetJoystickSupplier(func() [][]wire.JoystickValue {
		return [][]wire.JoystickValue{
			{wire.Button{ID: 1, Pressed: true}},
			{wire.Axis{ID: 0, Value: 0.5}},
		}
	})

	p := s.BuildControlPacket()
	require.Len(t, p.Tags, 2)
	for _, tag := range p.Tags {
		_, ok := tag.(wire.Joysticks)
		require.True(t, ok)
	}
}

func TestSendState_SeqnumIncrementAndReset(t *testing.T) {
	s := NewSendState(wire.Red1)
	require.Equal(t, uint16(0), s.Seqnum())
	s.IncrementSeqnum()
	s.IncrementSeqnum()
	require.Equal(t, uint16(2), s.Seqnum())
	s.ResetSeqnum()
	require.Equal(t, uint16(0), s.Seqnum())
}

func TestSendState_SeqnumWraps(t *testing.T) {
	s := NewSendState(wire.Red1)
	for i := 0; i < 1<<16; i++ {
		s.IncrementSeqnum()
	}
	require.Equal(t, uint16(0), s.Seqnum())
}

func TestSendState_ResetDisablesAndZeroesSeqnum(t *testing.T) {
	s := NewSendState(wire.Red1)
	s.SetMode(wire.ModeTeleoperated)
	s.Enable()
	s.IncrementSeqnum()
	s.Reset()
	require.Equal(t, uint16(0), s.Seqnum())
	require.False(t, s.Enabled())
	require.Equal(t, wire.ModeTeleoperated, s.Mode())
}
