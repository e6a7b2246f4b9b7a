// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// TimeoutError is the error a Call is rejected with when the Conn's
// RequestTimeout elapses before a reply arrives.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "request timed out" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }

// RemoteError is the error a Call is rejected with when the reply envelope
// carries an error field.
type RemoteError struct {
	// Message is the error message from the reply, or empty if the reply
	// carried a null error.
	Message string
}

func (e RemoteError) Error() string {
	if e.Message == "" {
		return "request rejected by remote peer"
	}
	return e.Message
}

// ErrNotSettled is returned by Call.Decode when the call has not settled yet.
type ErrNotSettled struct{}

func (ErrNotSettled) Error() string { return "call has not settled" }

// Call is the future handle for one in-flight request. It settles exactly
// once: resolved by a matching reply, or rejected by an error reply, by
// Conn.Abort, or by the optional request timeout. A call with no matching
// reply, no abort and no timeout configured never settles.
type Call struct {
	id   uint64
	done chan struct{}
	data json.RawMessage // response payload, nil if absent; valid after done
	err  error           // rejection cause; valid after done
}

func newCall(id uint64) *Call {
	return &Call{id: id, done: make(chan struct{})}
}

// ID returns the request id carried by this call.
func (call *Call) ID() uint64 { return call.id }

// Done returns a channel that is closed when the call settles. Attach
// completion work by receiving from it; no particular scheduler is assumed.
func (call *Call) Done() <-chan struct{} { return call.done }

// Err returns the rejection cause, or nil if the call resolved.
// It must not be called before Done is closed.
func (call *Call) Err() error { return call.err }

// Decode unmarshals the response payload into v. It returns ErrNotSettled if
// the call has not settled, the rejection cause if it was rejected, and nil
// without touching v if the reply carried no payload or v is nil.
func (call *Call) Decode(v any) error {
	select {
	case <-call.done:
	default:
		return errors.WithStack(ErrNotSettled{})
	}
	if call.err != nil {
		return call.err
	}
	if v == nil || call.data == nil {
		return nil
	}
	return errors.WithStack(json.Unmarshal(call.data, v))
}

// Await blocks until the call settles or ctx is done, then behaves as Decode.
func (call *Call) Await(ctx context.Context, v any) error {
	select {
	case <-call.done:
		return call.Decode(v)
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

func (call *Call) resolve(data json.RawMessage) {
	call.data = data
	close(call.done)
}

func (call *Call) reject(err error) {
	call.err = err
	close(call.done)
}

// pendingCall is one correlation table entry.
type pendingCall struct {
	call  *Call
	timer *time.Timer // rejects the call on RequestTimeout, nil if disabled
}

func (pc *pendingCall) stopTimer() {
	if pc.timer != nil {
		pc.timer.Stop()
	}
}

// remoteError builds the rejection cause from a reply's raw error field.
func remoteError(raw json.RawMessage) error {
	var msg string
	if json.Unmarshal(raw, &msg) != nil {
		if string(raw) != "null" {
			msg = string(raw)
		}
	}
	return errors.WithStack(RemoteError{Message: msg})
}
