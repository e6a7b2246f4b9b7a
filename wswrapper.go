// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

const (
	// DefaultSendQueueLimit is the default number of messages that may be
	// queued while the connection is not open.
	DefaultSendQueueLimit = 10
)

// Events with these names are dispatched locally by the Conn and are never
// auto-wrapped into protocol envelopes. An inbound envelope whose leading
// argument is one of these names is only treated as an event when it carries
// an explicit channel tag.
var reservedEvents = map[string]struct{}{
	"open":       {},
	"message":    {},
	"error":      {},
	"close":      {},
	"disconnect": {},
}

func isReservedEvent(name string) bool {
	_, ok := reservedEvents[name]
	return ok
}
