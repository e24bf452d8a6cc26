package session

import (
	"sync"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

// InboundConsumer receives decoded reliable-stream frames as they arrive
// (e.g. stdout/log lines printed by robot code).
type InboundConsumer func(wire.ReliableFrame)

// ReliableState owns the queue of outbound reliable-stream tags (match info,
// game-specific message), the inbound frame consumer callback, and whether
// the reliable task currently has a live stream bound. It is locked
// independently of SendState and ReceiveState because the reliable stream
// reconnects and flows on its own schedule, separate from the 20ms datagram
// cadence.
type ReliableState struct {
	mu sync.Mutex

	bound    bool
	pending  []wire.ReliableOutboundTag
	consumer InboundConsumer

	notify chan struct{}
}

// NewReliableState constructs an empty, unbound ReliableState.
func NewReliableState() *ReliableState {
	return &ReliableState{
		notify: make(chan struct{}, 1),
	}
}

// Bind marks the reliable stream as connected; called by the reliable task
// once its TCP connection succeeds.
func (r *ReliableState) Bind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = true
}

// Unbind marks the reliable stream as disconnected; called by the reliable
// task on exit.
func (r *ReliableState) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = false
}

// IsBound reports whether the reliable task currently owns a live stream.
func (r *ReliableState) IsBound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound
}

// QueueMatchInfo enqueues a MatchInfo tag to be sent over the reliable
// stream, failing with ErrReliableChannelUnavailable if the stream isn't
// currently bound.
func (r *ReliableState) QueueMatchInfo(m wire.MatchInfo) error {
	return r.queue(m)
}

// QueueGameData enqueues a GameData tag to be sent over the reliable
// stream, failing with ErrReliableChannelUnavailable if the stream isn't
// currently bound.
func (r *ReliableState) QueueGameData(g wire.GameData) error {
	return r.queue(g)
}

func (r *ReliableState) queue(tag wire.ReliableOutboundTag) error {
	r.mu.Lock()
	if !r.bound {
		r.mu.Unlock()
		return dserr.ErrReliableChannelUnavailable
	}
	r.pending = append(r.pending, tag)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// NotifyChannel returns the channel the reliable task selects on to learn a
// new outbound tag was queued.
func (r *ReliableState) NotifyChannel() <-chan struct{} {
	return r.notify
}

// DrainPending removes and returns all queued outbound tags in insertion
// order. Called by the reliable task immediately before it flushes to the
// stream; if the write fails the caller is responsible for re-queuing.
func (r *ReliableState) DrainPending() []wire.ReliableOutboundTag {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags := r.pending
	r.pending = nil
	return tags
}

// Requeue puts tags back at the front of the pending queue, used when a
// write attempt fails partway through.
func (r *ReliableState) Requeue(tags []wire.ReliableOutboundTag) {
	if len(tags) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(tags, r.pending...)
}

// SetConsumer replaces the inbound frame consumer callback.
func (r *ReliableState) SetConsumer(f InboundConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumer = f
}

// Dispatch invokes the current consumer callback, if any, with a decoded
// inbound frame. It is a no-op when no consumer has been set.
func (r *ReliableState) Dispatch(frame wire.ReliableFrame) {
	r.mu.Lock()
	consumer := r.consumer
	r.mu.Unlock()
	if consumer != nil {
		consumer(frame)
	}
}
