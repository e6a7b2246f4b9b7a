// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Envelope is the wire unit exchanged over the transport. The JSON field
// names are fixed for interoperability with other ws-wrapper implementations.
//
// An event or request carries Args, where the first element is the event
// name. A request additionally carries ID. A successful reply carries ID and
// Data; a failed reply carries ID and Error. Error may be JSON null, so it is
// kept as a raw message to preserve the distinction between absent and null.
type Envelope struct {
	Args    []json.RawMessage `json:"a,omitempty"`
	Channel string            `json:"c,omitempty"`
	ID      uint64            `json:"i,omitempty"`
	Data    json.RawMessage   `json:"d,omitempty"`
	Error   json.RawMessage   `json:"e,omitempty"`
	NoWrap  *bool             `json:"ws-wrapper,omitempty"`
}

// EventName returns the leading argument as the event name.
// It returns false if the argument list is empty or the leading
// argument is not a JSON string.
func (env *Envelope) EventName() (name string, ok bool) {
	if len(env.Args) == 0 {
		return
	}
	if json.Unmarshal(env.Args[0], &name) != nil {
		return
	}
	ok = true
	return
}

// isEvent reports whether the envelope classifies as an event or request:
// it has an argument list with a valid leading event name, and either
// targets a named channel or the name is not reserved for local dispatch.
func (env *Envelope) isEvent() (name string, ok bool) {
	name, ok = env.EventName()
	if ok {
		ok = env.Channel != "" || !isReservedEvent(name)
	}
	return
}

// ignorable reports whether the envelope carries the explicit
// not-a-protocol-message marker.
func (env *Envelope) ignorable() bool {
	return env.NoWrap != nil && !*env.NoWrap
}

// newEventEnvelope builds an outbound event envelope with the event name as
// the leading argument, followed by the marshalled args.
func newEventEnvelope(channel, event string, args []any) (*Envelope, error) {
	raw := make([]json.RawMessage, 0, len(args)+1)
	b, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	raw = append(raw, b)
	for _, arg := range args {
		if b, err = json.Marshal(arg); err != nil {
			return nil, errors.WithStack(err)
		}
		raw = append(raw, b)
	}
	return &Envelope{Args: raw, Channel: channel}, nil
}
