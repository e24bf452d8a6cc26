// Package engine runs the four long-lived tasks that carry a driver-station
// session's datagrams and reliable stream, coordinated by signal channels
// and the session package's locked substates: a read-pump goroutine feeds
// each blocking socket read into a channel so the task's main loop can
// select over it alongside signals and tickers, and reconnect follows a
// dial/backoff/retry cycle.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldcontrol/ds-client/pkg/session"
)

// Network ports fixed by the protocol (§6).
const (
	ControlPort   = 1110
	StatusPort    = 1150
	ReliablePort  = 1740
	SimProbePort  = 1135
)

// Timing constants (§5).
const (
	SendTickInterval    = 20 * time.Millisecond
	StatusReadTimeout   = 2 * time.Second
	SimProbeReadTimeout = 250 * time.Millisecond
)

// SimulationHost is the loopback address the send/receive/reliable tasks
// target while the session is in DsModeSimulation.
const SimulationHost = "127.0.0.1"

// Signal is the closed set of messages the facade (and the simulator-probe
// task) send to the engine's receive task, which is the sole consumer of
// the signal channel and the only task permitted to request a rebind.
type Signal interface {
	isSignal()
}

// SigDisconnect requests that all tasks exit; the facade is being closed.
type SigDisconnect struct{}

func (SigDisconnect) isSignal() {}

// SigNewTarget requests a rebind to a new host, resetting sequence number,
// enabled state, receive state, and the backoff sequence.
type SigNewTarget struct{ Host string }

func (SigNewTarget) isSignal() {}

// SigNewMode requests a ds-mode change; a no-op if the mode is unchanged.
type SigNewMode struct{ Mode session.DsMode }

func (SigNewMode) isSignal() {}

// rebindRequest is the internal, receive-task-to-send-task half of the
// double-hop signal design: only the send task may touch its own socket,
// so the receive task forwards host changes to it via this channel
// instead of rebinding directly.
type rebindRequest struct {
	host         string
	resetBackoff bool
}

// Engine owns the four cooperating goroutines and the channels that
// coordinate them. It holds no public fields; callers interact with it
// through the session substates they already hold a reference to, plus
// Engine's own signal and accessor methods.
type Engine struct {
	logger *zap.Logger

	send     *session.SendState
	recv     *session.ReceiveState
	reliable *session.ReliableState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	signals chan Signal
	rebind  chan rebindRequest

	modeMu     sync.RWMutex
	dsMode     session.DsMode
	teamHost   string
	targetHost string

	backoffMaxWait time.Duration
	timezoneName   string

	closeOnce sync.Once
}

// Config bundles the construction-time parameters for New.
type Config struct {
	Logger         *zap.Logger
	Send           *session.SendState
	Recv           *session.ReceiveState
	Reliable       *session.ReliableState
	InitialHost    string
	InitialMode    session.DsMode
	BackoffMaxWait time.Duration
	TimezoneName   string
}

// New constructs an Engine and immediately spawns its three static tasks
// (datagram send, datagram receive, simulator probe); the reliable task is
// spawned lazily by the receive task once the first status datagram
// arrives.
func New(parent context.Context, cfg Config) *Engine {
	ctx, cancel := context.WithCancel(parent)
	e := &Engine{
		logger:         cfg.Logger,
		send:           cfg.Send,
		recv:           cfg.Recv,
		reliable:       cfg.Reliable,
		ctx:            ctx,
		cancel:         cancel,
		signals:        make(chan Signal, 4),
		rebind:         make(chan rebindRequest, 1),
		dsMode:         cfg.InitialMode,
		teamHost:       cfg.InitialHost,
		targetHost:     cfg.InitialHost,
		backoffMaxWait: cfg.BackoffMaxWait,
		timezoneName:   cfg.TimezoneName,
	}

	e.wg.Add(3)
	go e.runDatagramReceive()
	go e.runDatagramSend()
	go e.runSimulatorProbe()

	return e
}

// SetTarget signals a new host for the engine to connect to.
func (e *Engine) SetTarget(host string) {
	e.sendSignal(SigNewTarget{Host: host})
}

// SetMode signals a ds-mode change.
func (e *Engine) SetMode(mode session.DsMode) {
	e.sendSignal(SigNewMode{Mode: mode})
}

func (e *Engine) sendSignal(sig Signal) {
	select {
	case e.signals <- sig:
	case <-e.ctx.Done():
	}
}

// Close requests shutdown of all tasks and blocks until they have exited.
// Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		select {
		case e.signals <- SigDisconnect{}:
		default:
		}
		e.cancel()
	})
	e.wg.Wait()
}

// DsMode returns the engine's current ds mode.
func (e *Engine) DsMode() session.DsMode {
	e.modeMu.RLock()
	defer e.modeMu.RUnlock()
	return e.dsMode
}

func (e *Engine) setDsMode(m session.DsMode) {
	e.modeMu.Lock()
	e.dsMode = m
	e.modeMu.Unlock()
}

// TargetHost returns the host the engine is currently connected (or
// attempting to connect) to.
func (e *Engine) TargetHost() string {
	e.modeMu.RLock()
	defer e.modeMu.RUnlock()
	return e.targetHost
}

func (e *Engine) setTargetHost(h string) {
	e.modeMu.Lock()
	e.targetHost = h
	e.modeMu.Unlock()
}

func (e *Engine) teamHostValue() string {
	e.modeMu.RLock()
	defer e.modeMu.RUnlock()
	return e.teamHost
}

func (e *Engine) setTeamHost(h string) {
	e.modeMu.Lock()
	e.teamHost = h
	e.modeMu.Unlock()
}
