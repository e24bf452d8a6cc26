// Package driverstation provides the caller-facing handle for a driver
// station session: lifecycle, state mutators, and read-only accessors,
// backed by the engine and session packages.
package driverstation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
	"github.com/fieldcontrol/ds-client/pkg/engine"
	"github.com/fieldcontrol/ds-client/pkg/session"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

// DefaultBackoffMaxWait is the cap on the send task's reconnect backoff
// when Options.BackoffMaxWait is left zero.
const DefaultBackoffMaxWait = 5 * time.Second

// DefaultTimezoneName is the timezone string sent in response to a
// need_date request when Options.TimezoneName is left empty.
const DefaultTimezoneName = "UTC"

// Options configures optional, non-protocol aspects of a Client.
type Options struct {
	Logger         *zap.Logger
	BackoffMaxWait time.Duration
	TimezoneName   string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.BackoffMaxWait <= 0 {
		o.BackoffMaxWait = DefaultBackoffMaxWait
	}
	if o.TimezoneName == "" {
		o.TimezoneName = DefaultTimezoneName
	}
	return o
}

// Client is the caller-facing driver-station handle. All accessors are
// non-blocking with respect to transport work; each takes a substate lock
// for the smallest possible critical section.
type Client struct {
	send     *session.SendState
	recv     *session.ReceiveState
	reliable *session.ReliableState
	eng      *engine.Engine
	logger   *zap.Logger

	mu          sync.RWMutex
	teamNumber  int
	useLoopback bool

	closeOnce sync.Once
}

// New constructs a Client targeting ip directly and spawns all four
// connection tasks. team may be zero if the caller has no team number to
// report (e.g. a pure loopback/simulation session).
func New(ip string, alliance wire.Alliance, team int, opts Options) (*Client, error) {
	if ip == "" {
		return nil, fmt.Errorf("driverstation: %w: ip must not be empty", dserr.ErrInvalidArgument)
	}
	opts = opts.withDefaults()

	send := session.NewSendState(alliance)
	recv := session.NewReceiveState()
	reliable := session.NewReliableState()

	eng := engine.New(context.Background(), engine.Config{
		Logger:         opts.Logger,
		Send:           send,
		Recv:           recv,
		Reliable:       reliable,
		InitialHost:    ip,
		InitialMode:    session.DsModeNormal,
		BackoffMaxWait: opts.BackoffMaxWait,
		TimezoneName:   opts.TimezoneName,
	})

	return &Client{
		send:       send,
		recv:       recv,
		reliable:   reliable,
		eng:        eng,
		logger:     opts.Logger,
		teamNumber: team,
	}, nil
}

// NewFromTeam derives the controller's IP from its team number (§6) and
// constructs a Client targeting it.
func NewFromTeam(team int, alliance wire.Alliance, opts Options) (*Client, error) {
	ip, err := IPFromTeamNumber(team)
	if err != nil {
		return nil, err
	}
	return New(ip, alliance, team, opts)
}

// SetAlliance updates the alliance position carried in every control
// datagram.
func (c *Client) SetAlliance(a wire.Alliance) {
	c.send.SetAlliance(a)
}

// SetMode updates the operating mode.
func (c *Client) SetMode(m wire.Mode) {
	c.send.SetMode(m)
}

// SetTeamNumber re-derives the target IP from a new team number and
// requests a rebind, resetting sequence number and receive state.
func (c *Client) SetTeamNumber(team int) error {
	ip, err := IPFromTeamNumber(team)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.teamNumber = team
	c.useLoopback = false
	c.mu.Unlock()
	c.eng.SetTarget(ip)
	return nil
}

// SetUseLoopbackTransport switches the target between the loopback
// override address and the team-derived IP.
func (c *Client) SetUseLoopbackTransport(use bool) error {
	c.mu.Lock()
	c.useLoopback = use
	team := c.teamNumber
	c.mu.Unlock()

	if use {
		c.eng.SetTarget(LoopbackOverrideHost)
		return nil
	}
	ip, err := IPFromTeamNumber(team)
	if err != nil {
		return err
	}
	c.eng.SetTarget(ip)
	return nil
}

// SetGameSpecificMessage queues a GameData reliable tag; s must be exactly
// three characters.
func (c *Client) SetGameSpecificMessage(s string) error {
	if len(s) != 3 {
		return fmt.Errorf("driverstation: %w: game specific message must be exactly 3 characters, got %d", dserr.ErrInvalidArgument, len(s))
	}
	return c.reliable.QueueGameData(wire.GameData{Message: s})
}

// SetMatchInfo queues a MatchInfo reliable tag describing the current
// event/match.
func (c *Client) SetMatchInfo(m wire.MatchInfo) error {
	return c.reliable.QueueMatchInfo(m)
}

// SetJoystickSupplier replaces the joystick supplier consulted on every
// outbound control datagram.
func (c *Client) SetJoystickSupplier(f session.JoystickSupplier) {
	c.send.SetJoystickSupplier(f)
}

// SetInboundConsumer replaces the callback invoked with every decoded
// inbound reliable-stream frame.
func (c *Client) SetInboundConsumer(f session.InboundConsumer) {
	c.reliable.SetConsumer(f)
}

// Enable sets the enabled flag, a no-op while estopped.
func (c *Client) Enable() {
	c.send.Enable()
}

// Disable clears the enabled flag.
func (c *Client) Disable() {
	c.send.Disable()
}

// Estop latches the estop flag and disables the robot.
func (c *Client) Estop() {
	c.send.Estop()
}

// RestartCode requests a user-code restart on the next control datagram.
func (c *Client) RestartCode() {
	c.send.Request(wire.RequestRestartCode)
}

// RestartController requests a full controller reboot on the next control
// datagram.
func (c *Client) RestartController() {
	c.send.Request(wire.RequestReboot)
}

// Mode returns the current operating mode.
func (c *Client) Mode() wire.Mode {
	return c.send.Mode()
}

// Enabled reports the current enabled flag.
func (c *Client) Enabled() bool {
	return c.send.Enabled()
}

// Estopped reports the current estop latch.
func (c *Client) Estopped() bool {
	return c.send.Estopped()
}

// Trace returns the most recently received trace byte, or 0 if no status
// datagram has ever been received.
func (c *Client) Trace() byte {
	p, _ := c.recv.Last()
	return p.Trace
}

// BatteryVoltage returns the most recently reported battery voltage.
func (c *Client) BatteryVoltage() float32 {
	return c.recv.Battery()
}

// DsMode returns whether the session is currently targeting a normal
// controller or the local simulator.
func (c *Client) DsMode() session.DsMode {
	return c.eng.DsMode()
}

// TeamNumber returns the team number the client was constructed or last
// updated with.
func (c *Client) TeamNumber() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.teamNumber
}

// UDPQueueLen returns the number of outbound tags currently queued for the
// next control datagram.
func (c *Client) UDPQueueLen() int {
	return c.send.PendingTagCount()
}

// Close requests shutdown of all connection tasks and blocks until they
// have exited. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(c.eng.Close)
}
