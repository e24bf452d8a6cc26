package driverstation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
	"github.com/fieldcontrol/ds-client/pkg/session"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

func testOptions() Options {
	return Options{BackoffMaxWait: 100 * time.Millisecond}
}

func TestNew_RejectsEmptyIP(t *testing.T) {
	_, err := New("", wire.Red1, 1114, testOptions())
	require.ErrorIs(t, err, dserr.ErrInvalidArgument)
}

func TestNewFromTeam_RejectsBadTeam(t *testing.T) {
	_, err := NewFromTeam(0, wire.Red1, testOptions())
	require.ErrorIs(t, err, dserr.ErrTargetUnresolvable)
}

func TestClient_LifecycleAndAccessors(t *testing.T) {
	c, err := New("127.0.0.1", wire.Blue2, 1114, testOptions())
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, 1114, c.TeamNumber())
	require.Equal(t, wire.ModeAutonomous, c.Mode())
	require.False(t, c.Enabled())
	require.False(t, c.Estopped())
	require.Equal(t, session.DsModeNormal, c.DsMode())

	c.SetMode(wire.ModeTeleoperated)
	require.Equal(t, wire.ModeTeleoperated, c.Mode())

	c.Enable()
	require.True(t, c.Enabled())

	c.Estop()
	require.True(t, c.Estopped())
	require.False(t, c.Enabled())
}

func TestClient_SetGameSpecificMessageValidatesLength(t *testing.T) {
	c, err := New("127.0.0.1", wire.Red1, 1114, testOptions())
	require.NoError(t, err)
	defer c.Close()

	err = c.SetGameSpecificMessage("AB")
	require.ErrorIs(t, err, dserr.ErrInvalidArgument)

	// Reliable task has no time to bind in this test, so the well-formed
	// message still fails, but with a different sentinel.
	err = c.SetGameSpecificMessage("ABC")
	require.ErrorIs(t, err, dserr.ErrReliableChannelUnavailable)
}

func TestClient_SetTeamNumberRederivesTarget(t *testing.T) {
	c, err := New("127.0.0.1", wire.Red1, 1, testOptions())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetTeamNumber(1114))
	require.Equal(t, 1114, c.TeamNumber())
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	c, err := New("127.0.0.1", wire.Red1, 1114, testOptions())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.Close()
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestClient_UDPQueueLenReflectsPendingTags(t *testing.T) {
	c, err := New("127.0.0.1", wire.Red1, 1114, testOptions())
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, 0, c.UDPQueueLen())
}
