// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"encoding/json"
	"fmt"
)

// route parses and classifies one inbound payload as an event, a response,
// or noise. The shared transport may legitimately carry foreign or malformed
// traffic, so anything unrecognized is discarded without error.
func (c *Conn) route(data []byte) {
	var env Envelope
	if json.Unmarshal(data, &env) != nil {
		return
	}
	if env.ignorable() {
		return
	}
	if name, ok := env.isEvent(); ok {
		c.routeEvent(&env, name)
		return
	}
	if env.ID != 0 {
		c.routeResponse(&env)
	}
}

// routeEvent resolves the target channel and dispatches to its listeners.
// When the event is a request, the dispatch outcome is reported back to the
// remote peer: a missing channel or missing listener sends a reject reply,
// a handler error sends a reject reply, and otherwise the handler's return
// value is sent as the resolve reply.
func (c *Conn) routeEvent(env *Envelope, name string) {
	ch := c.lookup(env.Channel)
	if ch == nil {
		if env.ID != 0 {
			c.sendReject(env.ID, fmt.Sprintf("Channel '%s' does not exist", env.Channel))
		}
		return
	}
	ev := &Event{
		Name:      name,
		Args:      env.Args[1:],
		Channel:   ch,
		requestID: env.ID,
	}
	result, handled, err := ch.dispatch(ev)
	if env.ID == 0 {
		return
	}
	switch {
	case !handled:
		msg := fmt.Sprintf("No event listener for '%s'", name)
		if ch.name != "" {
			msg += fmt.Sprintf(" on channel '%s'", ch.name)
		}
		c.sendReject(env.ID, msg)
	case err != nil:
		c.sendReject(env.ID, err.Error())
	default:
		c.sendResolve(env.ID, result)
	}
}

// routeResponse settles the matching pending call. An id that matches no
// pending call is not a recognized protocol message and is discarded.
func (c *Conn) routeResponse(env *Envelope) {
	pc := c.takePending(env.ID)
	if pc == nil {
		return
	}
	pc.stopTimer()
	if env.Error != nil {
		pc.call.reject(remoteError(env.Error))
		return
	}
	pc.call.resolve(env.Data)
}

// sendResolve sends a successful reply carrying only the request id and the
// payload. Replies bypass the send queue limit so they cannot be lost merely
// because the outbound queue for new calls is saturated.
func (c *Conn) sendResolve(id uint64, result any) {
	env := Envelope{ID: id}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			c.sendReject(id, err.Error())
			return
		}
		env.Data = data
	}
	c.sendReply(&env)
}

// sendReject sends a failed reply carrying the request id and an error
// message, or null when the message is empty. Bypasses the queue limit.
func (c *Conn) sendReject(id uint64, msg string) {
	env := Envelope{ID: id, Error: json.RawMessage("null")}
	if msg != "" {
		data, err := json.Marshal(msg)
		if err == nil {
			env.Error = data
		}
	}
	c.sendReply(&env)
}

func (c *Conn) sendReply(env *Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		c.reportError(err)
		return
	}
	if err = c.sendBytes(b, true); err != nil {
		c.reportError(err)
	}
}
