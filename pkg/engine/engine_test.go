package engine

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldcontrol/ds-client/pkg/session"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

func newTestEngine(t *testing.T, host string) (*Engine, *session.SendState, *session.ReceiveState, *session.ReliableState) {
	t.Helper()
	send := session.NewSendState(wire.Red1)
	recv := session.NewReceiveState()
	reliable := session.NewReliableState()

	e := New(context.Background(), Config{
		Logger:         zap.NewNop(),
		Send:           send,
		Recv:           recv,
		Reliable:       reliable,
		InitialHost:    host,
		InitialMode:    session.DsModeNormal,
		BackoffMaxWait: 200 * time.Millisecond,
		TimezoneName:   "UTC",
	})
	t.Cleanup(e.Close)
	return e, send, recv, reliable
}

// TestEngine_SendsControlDatagramsToFakeRobot spins up a UDP listener on the
// fixed control port and verifies the send task delivers enabled control
// datagrams whose sequence numbers increase by one each.
func TestEngine_SendsControlDatagramsToFakeRobot(t *testing.T) {
	robot, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: ControlPort})
	require.NoError(t, err)
	defer robot.Close()

	_, send, _, _ := newTestEngine(t, "127.0.0.1")
	send.Enable()

	buf := make([]byte, 64)
	var seqnums []uint16
	deadline := time.Now().Add(2 * time.Second)
	for len(seqnums) < 3 && time.Now().Before(deadline) {
		_ = robot.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := robot.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		decoded, err := wire.DecodeControl(buf[:n])
		require.NoError(t, err)
		require.NotZero(t, decoded.Control&wire.ControlEnabled)
		seqnums = append(seqnums, decoded.Seqnum)
	}

	require.GreaterOrEqual(t, len(seqnums), 2)
	for i := 1; i < len(seqnums); i++ {
		require.Equal(t, seqnums[i-1]+1, seqnums[i])
	}
}


// TestEngine_StatusDatagramUpdatesReceiveState verifies the receive task
// decodes an inbound status datagram and applies it to receive substate.
func TestEngine_StatusDatagramUpdatesReceiveState(t *testing.T) {
	_, _, recv, _ := newTestEngine(t, "127.0.0.1")

	conn, err := net.Dial("udp", "127.0.0.1:1150")
	require.NoError(t, err)
	defer conn.Close()

	status := []byte{0x00, 0x01, 0x01, 0x04, 0x21, 0x0C, 0x80, 0x00}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err := conn.Write(status)
		require.NoError(t, err)
		if _, ok := recv.Last(); ok {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	p, ok := recv.Last()
	require.True(t, ok)
	require.Equal(t, uint16(1), p.Seqnum)
	require.InDelta(t, 12.5, p.Battery, 1e-6)
}

// TestEngine_SetModeEntersSimulation verifies a SetMode call rewires the
// target host to the simulation loopback address.
func TestEngine_SetModeEntersSimulation(t *testing.T) {
	e, _, _, _ := newTestEngine(t, "10.1.2.2")
	e.SetMode(session.DsModeSimulation)

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) && e.DsMode() != session.DsModeSimulation {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, session.DsModeSimulation, e.DsMode())
	require.Equal(t, SimulationHost, e.TargetHost())
}

// TestEngine_CloseIsIdempotent verifies Close can be called multiple times
// without panicking or blocking forever.
func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, _, _, _ := newTestEngine(t, "127.0.0.1")
	done := make(chan struct{})
	go func() {
		e.Close()
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return")
	}
}
