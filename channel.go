// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Handler handles one inbound event. When the event is a remote request, the
// returned value becomes the payload of the resolve reply, and a non-nil
// error becomes a reject reply instead. For plain events both are ignored.
type Handler func(ev *Event) (any, error)

// Event is one inbound event or request as delivered to handlers.
type Event struct {
	// Name is the event name, the leading element of the argument list.
	Name string
	// Args are the remaining arguments, left opaque as raw JSON.
	Args []json.RawMessage
	// Channel is the channel the event was dispatched on.
	Channel *Channel

	requestID uint64
}

// IsRequest reports whether the remote peer expects a reply.
func (ev *Event) IsRequest() bool { return ev.requestID != 0 }

// Decode unmarshals the leading arguments into vs, positionally.
func (ev *Event) Decode(vs ...any) error {
	if len(vs) > len(ev.Args) {
		return errors.Errorf("event %q carries %d arguments, want %d", ev.Name, len(ev.Args), len(vs))
	}
	for i, v := range vs {
		if err := json.Unmarshal(ev.Args[i], v); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

type listener struct {
	fn   Handler
	once bool
}

// Channel is one named partition of the shared connection. It holds its own
// event listener set but owns no socket access; all outbound traffic flows
// through the owning Conn. One Channel exists per namespace for the lifetime
// of the Conn.
type Channel struct {
	name string
	conn *Conn

	lmu       sync.Mutex
	listeners map[string][]*listener
}

func (ch *Channel) init(conn *Conn, name string) {
	ch.conn = conn
	ch.name = name
	ch.listeners = make(map[string][]*listener)
}

func (ch *Channel) String() string {
	if ch.name == "" {
		return "[Channel default]"
	}
	return fmt.Sprintf("[Channel %q]", ch.name)
}

// Name returns the channel namespace, or the empty string for the default
// channel.
func (ch *Channel) Name() string { return ch.name }

// On registers fn as a listener for the named event and returns a function
// that unregisters it.
func (ch *Channel) On(event string, fn Handler) (off func()) {
	return ch.register(event, fn, false)
}

// Once registers fn for the named event; it is unregistered after the first
// dispatch. The returned function unregisters it early.
func (ch *Channel) Once(event string, fn Handler) (off func()) {
	return ch.register(event, fn, true)
}

func (ch *Channel) register(event string, fn Handler, once bool) (off func()) {
	l := &listener{fn: fn, once: once}
	ch.lmu.Lock()
	ch.listeners[event] = append(ch.listeners[event], l)
	ch.lmu.Unlock()
	return func() { ch.remove(event, l) }
}

func (ch *Channel) remove(event string, l *listener) {
	ch.lmu.Lock()
	defer ch.lmu.Unlock()
	ls := ch.listeners[event]
	for i, cand := range ls {
		if cand == l {
			ch.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Off removes every listener for the named event.
func (ch *Channel) Off(event string) {
	ch.lmu.Lock()
	delete(ch.listeners, event)
	ch.lmu.Unlock()
}

// dispatch invokes the listeners registered for ev.Name in registration
// order. It reports whether any listener existed; result and err are taken
// from the last listener invoked, for use as the reply to a remote request.
func (ch *Channel) dispatch(ev *Event) (result any, handled bool, err error) {
	ch.lmu.Lock()
	ls := ch.listeners[ev.Name]
	snapshot := make([]*listener, len(ls))
	copy(snapshot, ls)
	kept := ls[:0:0]
	for _, l := range ls {
		if !l.once {
			kept = append(kept, l)
		}
	}
	if len(kept) > 0 {
		ch.listeners[ev.Name] = kept
	} else {
		delete(ch.listeners, ev.Name)
	}
	ch.lmu.Unlock()

	for _, l := range snapshot {
		result, err = l.fn(ev)
	}
	handled = len(snapshot) > 0
	return
}

// Emit sends a fire-and-forget event on this channel. While the connection
// is not open the message is queued, subject to the Conn's send queue limit.
func (ch *Channel) Emit(event string, args ...any) error {
	env, err := newEventEnvelope(ch.name, event, args)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return errors.WithStack(err)
	}
	return ch.conn.sendBytes(b, false)
}

// Request emits an event that expects exactly one reply and returns a Call
// that settles when the reply arrives. The request id is allocated and the
// pending call registered before the message is submitted; on a synchronous
// send failure (such as QueueFullError) the entry is removed again and the
// error returned.
func (ch *Channel) Request(event string, args ...any) (*Call, error) {
	env, err := newEventEnvelope(ch.name, event, args)
	if err != nil {
		return nil, err
	}
	call := ch.conn.addPending()
	env.ID = call.id
	b, err := json.Marshal(env)
	if err != nil {
		ch.conn.cancelPending(call.id)
		return nil, errors.WithStack(err)
	}
	if err = ch.conn.sendBytes(b, false); err != nil {
		ch.conn.cancelPending(call.id)
		return nil, err
	}
	return call, nil
}
