package session

import (
	"sync"
	"time"

	"github.com/fieldcontrol/ds-client/pkg/wire"
)

// ReceiveState owns the most recently decoded status datagram and the
// derived facts downstream callers (and the send state's estop latch) care
// about.
type ReceiveState struct {
	mu sync.RWMutex

	last        wire.StatusPacket
	haveStatus  bool
	lastSeen    time.Time
	battery     float32
	robotCode   bool
	isController bool
}

// NewReceiveState constructs an empty ReceiveState.
func NewReceiveState() *ReceiveState {
	return &ReceiveState{}
}

// Apply records a freshly decoded status packet and the wall-clock time it
// was observed at, and derives the robot-code/is-controller flags from its
// trace byte.
func (r *ReceiveState) Apply(p wire.StatusPacket, observedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = p
	r.haveStatus = true
	r.lastSeen = observedAt
	r.battery = p.Battery
	r.robotCode = p.Trace&wire.TraceRobotCode != 0
	r.isController = p.Trace&wire.TraceIsController != 0
}

// Last returns the most recently applied status packet and whether one has
// ever been received.
func (r *ReceiveState) Last() (wire.StatusPacket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.haveStatus
}

// LastSeen returns the wall-clock time of the most recently applied status
// packet.
func (r *ReceiveState) LastSeen() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSeen
}

// Battery returns the most recently reported battery voltage.
func (r *ReceiveState) Battery() float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.battery
}

// RobotCodeRunning reports whether the last trace byte indicated user code
// was running on the controller.
func (r *ReceiveState) RobotCodeRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.robotCode
}

// IsController reports whether the last trace byte indicated the target is
// a real controller, as opposed to a simulator.
func (r *ReceiveState) IsController() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isController
}

// Reset clears all receive state, used on target change.
func (r *ReceiveState) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = wire.StatusPacket{}
	r.haveStatus = false
	r.lastSeen = time.Time{}
	r.battery = 0
	r.robotCode = false
	r.isController = false
}
