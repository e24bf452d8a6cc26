// Package dserr defines the sentinel error taxonomy surfaced by the
// driver-station core to its callers.
package dserr

import "errors"

var (
	// ErrInvalidArgument is returned when a caller-supplied value violates a
	// documented precondition, such as a game-specific message that is not
	// exactly three characters.
	ErrInvalidArgument = errors.New("dserr: invalid argument")

	// ErrTransportUnavailable is reported the first time a control datagram
	// send fails after a previously successful connection. It is one-shot
	// per disconnection; subsequent failures are absorbed by backoff.
	ErrTransportUnavailable = errors.New("dserr: transport unavailable")

	// ErrReliableChannelUnavailable is returned when a reliable tag is
	// queued while the reliable task has not bound an outbound channel.
	ErrReliableChannelUnavailable = errors.New("dserr: reliable channel unavailable")

	// ErrDecode indicates a malformed inbound frame. The offending bytes
	// are drained and the calling task continues; this error is logged,
	// never fatal.
	ErrDecode = errors.New("dserr: decode error")

	// ErrTargetUnresolvable is returned by NewFromTeam when the team number
	// cannot be turned into a target address.
	ErrTargetUnresolvable = errors.New("dserr: target unresolvable")
)
