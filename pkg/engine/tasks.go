package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fieldcontrol/ds-client/pkg/backoff"
	"github.com/fieldcontrol/ds-client/pkg/session"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

type udpReadResult struct {
	data []byte
	err  error
}

// runDatagramReceive is the sole consumer of the signal channel: it binds
// the inbound status socket, decodes status datagrams, feeds battery/trace
// into receive substate, spawns the reliable task on first contact, and
// forwards target/mode changes to the send task via the rebind channel.
func (e *Engine) runDatagramReceive() {
	defer e.wg.Done()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: StatusPort})
	if err != nil {
		e.logger.Error("failed to bind status socket", zap.Int("port", StatusPort), zap.Error(err))
		return
	}
	defer conn.Close()

	readCh := make(chan udpReadResult, 1)
	stopReader := make(chan struct{})
	go func() {
		buf := make([]byte, 2048)
		for {
			select {
			case <-stopReader:
				return
			default:
			}
			_ = conn.SetReadDeadline(time.Now().Add(StatusReadTimeout))
			n, _, err := conn.ReadFromUDP(buf)
			var data []byte
			if n > 0 {
				data = append([]byte(nil), buf[:n]...)
			}
			select {
			case readCh <- udpReadResult{data: data, err: err}:
			case <-stopReader:
				return
			}
			if err != nil && !wire.IsTemporary(err) {
				return
			}
		}
	}()
	defer close(stopReader)

	haveStatus := false
	var reliableCancel context.CancelFunc

	stopReliable := func() {
		if reliableCancel != nil {
			reliableCancel()
			reliableCancel = nil
		}
	}
	defer stopReliable()

	for {
		select {
		case <-e.ctx.Done():
			return

		case sig := <-e.signals:
			switch s := sig.(type) {
			case SigDisconnect:
				return

			case SigNewTarget:
				stopReliable()
				e.send.Reset()
				e.recv.Reset()
				haveStatus = false
				e.setTeamHost(s.Host)
				e.setTargetHost(s.Host)
				e.forwardRebind(rebindRequest{host: s.Host, resetBackoff: true})

			case SigNewMode:
				if s.Mode == e.DsMode() {
					continue
				}
				newHost := e.teamHostValue()
				if s.Mode == session.DsModeSimulation {
					newHost = SimulationHost
				}
				stopReliable()
				e.send.Reset()
				e.recv.Reset()
				haveStatus = false
				e.setDsMode(s.Mode)
				e.send.SetDsMode(s.Mode)
				e.setTargetHost(newHost)
				e.forwardRebind(rebindRequest{host: newHost, resetBackoff: true})
			}

		case res := <-readCh:
			if res.err != nil {
				if wire.IsTemporary(res.err) {
					if haveStatus {
						e.logger.Warn("status datagram silence, clearing receive state")
						e.recv.Reset()
						haveStatus = false
					}
					continue
				}
				e.logger.Debug("status socket read error", zap.Error(res.err))
				return
			}

			p, _, err := wire.DecodeStatus(res.data)
			if err != nil {
				e.logger.Debug("status decode error", zap.Error(err))
				continue
			}

			haveStatus = true

			if p.NeedDate {
				now := time.Now().UTC()
				e.send.QueueTag(wire.DateTime{
					Micros:        uint32(now.Nanosecond() / 1000),
					Second:        uint8(now.Second()),
					Minute:        uint8(now.Minute()),
					Hour:          uint8(now.Hour()),
					Day:           uint8(now.Day()),
					Month0Based:   uint8(now.Month() - 1),
					YearSince1900: uint8(now.Year() - 1900),
				})
				e.send.QueueTag(wire.Timezone{Name: e.timezoneName})
			}

			if reliableCancel == nil {
				rctx, rcancel := context.WithCancel(e.ctx)
				reliableCancel = rcancel
				host := e.TargetHost()
				e.wg.Add(1)
				go e.runReliable(rctx, host)
			}

			e.send.MaybeLatchFromStatusEstop(p.Estopped())
			e.send.ObserveTraceForEstopClear(p.Trace)
			e.send.TickEstopGrace()
			e.recv.Apply(p, time.Now())
		}
	}
}

func (e *Engine) forwardRebind(req rebindRequest) {
	select {
	case e.rebind <- req:
	case <-e.ctx.Done():
	}
}

// runDatagramSend drives the 20ms control-datagram cadence, dialing a fresh
// connected UDP socket on every rebind request (and on the next tick after a
// failed write) and wrapping each write through the backoff helper when the
// transport refuses.
func (e *Engine) runDatagramSend() {
	defer e.wg.Done()

	conn := e.dialControl(e.TargetHost())
	bo := backoff.New(e.backoffMaxWait)

	ticker := time.NewTicker(SendTickInterval)
	defer ticker.Stop()

	closeConn := func() {
		if conn != nil {
			conn.Close()
			conn = nil
		}
	}
	defer closeConn()

	for {
		select {
		case <-e.ctx.Done():
			return

		case req := <-e.rebind:
			closeConn()
			conn = e.dialControl(req.host)
			if req.resetBackoff {
				bo.Reset()
			}

		case <-ticker.C:
			pkt := e.send.BuildControlPacket()
			encoded := wire.EncodeControl(pkt)

			if conn == nil {
				conn = e.dialControl(e.TargetHost())
			}
			if conn == nil {
				e.awaitBackoff(bo)
				continue
			}

			if _, err := conn.Write(encoded); err != nil {
				wait, first := bo.Failure()
				if first {
					e.logger.Warn("transport disconnected", zap.Error(err))
					if isConnRefused(err) {
						e.recv.Reset()
					}
				}
				closeConn()
				if !e.sleepOrDone(wait) {
					return
				}
				continue
			}

			bo.Reset()
			e.send.IncrementSeqnum()
		}
	}
}

func (e *Engine) awaitBackoff(bo *backoff.Backoff) {
	wait, first := bo.Failure()
	if first {
		e.logger.Warn("transport disconnected: no socket bound")
	}
	e.sleepOrDone(wait)
}

func (e *Engine) sleepOrDone(wait time.Duration) bool {
	select {
	case <-time.After(wait):
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *Engine) dialControl(host string) net.Conn {
	addr := fmt.Sprintf("%s:%d", host, ControlPort)
	conn, err := net.Dial("udp", addr)
	if err != nil {
		e.logger.Debug("control dial failed", zap.String("addr", addr), zap.Error(err))
		return nil
	}
	return conn
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// runReliable owns one generation of the TCP reliable stream: it dials the
// target, binds the reliable substate, and multiplexes inbound frames,
// outbound tag pushes, and the per-generation cancellation signal via
// select.
func (e *Engine) runReliable(ctx context.Context, host string) {
	defer e.wg.Done()

	addr := fmt.Sprintf("%s:%d", host, ReliablePort)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		e.logger.Debug("reliable dial failed", zap.String("addr", addr), zap.Error(err))
		return
	}

	e.reliable.Bind()
	defer e.reliable.Unbind()
	defer conn.Close()

	type frameResult struct {
		frame wire.ReliableFrame
		err   error
	}
	frameCh := make(chan frameResult, 1)
	go func() {
		fr := wire.NewFrameReader(conn)
		for {
			frame, err := fr.ReadFrame()
			frameCh <- frameResult{frame: frame, err: err}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-frameCh:
			if res.err != nil {
				e.logger.Debug("reliable stream closed", zap.Error(res.err))
				return
			}
			e.reliable.Dispatch(res.frame)

		case <-e.reliable.NotifyChannel():
			pending := e.reliable.DrainPending()
			for i, tag := range pending {
				if _, err := conn.Write(wire.EncodeReliable(tag)); err != nil {
					e.logger.Warn("reliable write failed", zap.Error(err))
					e.reliable.Requeue(pending[i:])
					return
				}
			}
		}
	}
}

// runSimulatorProbe listens on the loopback simulator port; any inbound
// byte flips the session into DsModeSimulation, and a read timeout with no
// traffic flips it back to DsModeNormal.
func (e *Engine) runSimulatorProbe() {
	defer e.wg.Done()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: SimProbePort})
	if err != nil {
		e.logger.Error("failed to bind simulator probe socket", zap.Int("port", SimProbePort), zap.Error(err))
		return
	}
	defer conn.Close()

	buf := make([]byte, 64)
	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(SimProbeReadTimeout))
		_, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if wire.IsTemporary(err) {
				if e.DsMode() != session.DsModeNormal {
					e.SetMode(session.DsModeNormal)
				}
				continue
			}
			return
		}

		if e.DsMode() != session.DsModeSimulation {
			e.SetMode(session.DsModeSimulation)
		}
	}
}
