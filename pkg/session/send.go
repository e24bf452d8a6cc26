// Package session holds the three independently lockable regions of
// driver-station state (send, receive, reliable), plus the control-datagram
// assembly logic that reads from send state.
package session

import (
	"sync"

	"github.com/fieldcontrol/ds-client/pkg/wire"
)

// DsMode selects whether the session targets a physical controller or a
// local simulator.
type DsMode uint8

const (
	DsModeNormal DsMode = iota
	DsModeSimulation
)

// JoystickSupplier returns, for each attached joystick port, the set of
// values observed on that port since the last call.
type JoystickSupplier func() [][]wire.JoystickValue

// SendState owns everything the 20ms send task needs: mode, sequence
// number, enable/estop flags, alliance, queued outbound tags, the joystick
// supplier, the pending one-shot request, and the current ds mode.
type SendState struct {
	mu sync.Mutex

	mode     wire.Mode
	seqnum   uint16
	enabled  bool
	estopped bool
	alliance wire.Alliance

	pendingTags []wire.OutboundTag
	supplier    JoystickSupplier
	request     byte

	dsMode DsMode

	// estopGraceRemaining counts down receive iterations during which a
	// stale "!ESTOP" from the controller must not clear the local latch.
	estopGraceRemaining int
}

// NewSendState constructs a SendState for the given starting alliance,
// defaulting to Autonomous mode per the original source.
func NewSendState(alliance wire.Alliance) *SendState {
	return &SendState{
		mode:     wire.ModeAutonomous,
		alliance: alliance,
	}
}

// SetMode updates the operating mode.
func (s *SendState) SetMode(m wire.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Mode returns the current operating mode.
func (s *SendState) Mode() wire.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetAlliance updates the alliance position.
func (s *SendState) SetAlliance(a wire.Alliance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alliance = a
}

// Alliance returns the current alliance position.
func (s *SendState) Alliance() wire.Alliance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alliance
}

// Enable sets the enabled flag, unless the estop latch is engaged.
func (s *SendState) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.estopped {
		return
	}
	s.enabled = true
}

// Disable clears the enabled flag.
func (s *SendState) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// Enabled reports the current enabled flag.
func (s *SendState) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Estop latches the estop flag and disables the robot. It also arms the
// grace window so a stale !ESTOP status from the controller doesn't
// immediately undo the latch.
func (s *SendState) Estop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.estopped = true
	s.estopGraceRemaining = EstopGraceIterations
}

// Estopped reports the current estop latch.
func (s *SendState) Estopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estopped
}

// EstopGraceIterations bounds how many receive iterations a stale !ESTOP
// status may be ignored for after Estop() is called, matching the original
// source's `iterations >= 5` bound in src/ds/conn.rs.
const EstopGraceIterations = 5

// ObserveTraceForEstopClear applies the authoritative estop-clear signal:
// the latch only clears once a ROBOT_CODE=0 trace byte (a code restart) is
// observed. It is the caller's job (the receive task) to invoke this with
// every decoded trace byte; a stale controller !ESTOP during the grace
// window must not reach this path as a clear on its own.
func (s *SendState) ObserveTraceForEstopClear(trace byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.estopped && trace&wire.TraceRobotCode == 0 {
		s.estopped = false
		s.estopGraceRemaining = 0
	}
}

// TickEstopGrace decrements the grace window by one receive iteration,
// returning whether the grace window is still active.
func (s *SendState) TickEstopGrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.estopGraceRemaining > 0 {
		s.estopGraceRemaining--
	}
	return s.estopGraceRemaining > 0
}

// MaybeLatchFromStatusEstop sets the estop latch if the controller's status
// byte reports estop, honoring the grace window so a stale clear status
// does not fight a locally-initiated estop still settling.
func (s *SendState) MaybeLatchFromStatusEstop(controllerEstopped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if controllerEstopped {
		s.enabled = false
		s.estopped = true
		return
	}
	if s.estopped && s.estopGraceRemaining > 0 {
		// Within the grace window: ignore the stale !ESTOP.
		return
	}
	// Outside the grace window a controller-reported !ESTOP does not, by
	// itself, clear the latch -- only ObserveTraceForEstopClear does,
	// and only upon observing a cleared ROBOT_CODE trace bit.
}

// Request sets the pending one-shot request byte.
func (s *SendState) Request(req byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = req
}

// SetJoystickSupplier replaces the joystick supplier closure.
func (s *SendState) SetJoystickSupplier(f JoystickSupplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supplier = f
}

// QueueTag appends an outbound tag to the pending queue, preserving
// insertion order.
func (s *SendState) QueueTag(t wire.OutboundTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTags = append(s.pendingTags, t)
}

// PendingTagCount returns the number of outbound tags currently queued,
// exposed to callers as the facade's UDPQueueLen accessor.
func (s *SendState) PendingTagCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingTags)
}

// SetDsMode updates the ds mode recorded in send state (the engine, not
// this method, is responsible for actually rewiring the sockets).
func (s *SendState) SetDsMode(m DsMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dsMode = m
}

// DsMode returns the current ds mode.
func (s *SendState) DsMode() DsMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dsMode
}

// Seqnum returns the current sequence number without mutating it.
func (s *SendState) Seqnum() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqnum
}

// IncrementSeqnum advances the sequence number by one, wrapping modulo
// 2^16.
func (s *SendState) IncrementSeqnum() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqnum++
}

// ResetSeqnum zeroes the sequence number. Target changes go through Reset,
// which also zeroes it.
func (s *SendState) ResetSeqnum() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqnum = 0
}

// BuildControlPacket assembles the current control datagram: it invokes the
// joystick supplier (if set), queues one Joysticks tag per reported port,
// drains pending tags in insertion order, and consumes the pending request.
// It does not advance the sequence number; the send task does that only
// after a successful transmit.
func (s *SendState) BuildControlPacket() wire.ControlPacket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.supplier != nil {
		for _, portValues := range s.supplier() {
			s.pendingTags = append(s.pendingTags, wire.NewJoysticks(portValues))
		}
	}

	control := wire.BuildControlByte(s.mode, s.enabled, s.estopped)

	tags := s.pendingTags
	s.pendingTags = nil

	req := s.request
	s.request = 0

	return wire.ControlPacket{
		Seqnum:   s.seqnum,
		Control:  control,
		Request:  req,
		Alliance: s.alliance,
		Tags:     tags,
	}
}

// Reset restores send state to its post-NewTarget defaults: sequence number
// zeroed, disabled. Mode, alliance, and the joystick supplier are left
// untouched, matching the original source's NewTarget behavior (it resets
// the sequence number and disables, but does not clear the caller's chosen
// mode/alliance/supplier).
func (s *SendState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqnum = 0
	s.enabled = false
}
