// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import "strconv"

// ReadyState reports the connection state of a Socket, mirroring the
// WebSocket readyState values.
type ReadyState int

const (
	// Connecting means the socket has been created but is not yet open.
	Connecting ReadyState = iota
	// Open means the socket is connected and ready to transmit.
	Open
	// Closing means the socket is in the process of closing.
	Closing
	// Closed means the socket is closed or could not be opened.
	Closed
)

var readyStateTexts = map[ReadyState]string{
	Connecting: "CONNECTING",
	Open:       "OPEN",
	Closing:    "CLOSING",
	Closed:     "CLOSED",
}

func (rs ReadyState) String() string {
	if s, ok := readyStateTexts[rs]; ok {
		return s
	}
	return strconv.FormatInt(int64(rs), 10)
}

// Socket is the transport contract required of anything bound to a Conn.
// It must provide ordered, reliable, message-framed delivery once open.
//
// Handlers are assigned by the Conn during Bind and must be invoked
// serially, never concurrently with each other.
type Socket interface {
	// ReadyState reports the current connection state.
	ReadyState() ReadyState
	// Send transmits one serialized message.
	Send(data []byte) error
	// Close closes the socket with the given status code and reason.
	Close(code int, reason string) error

	SetOpenHandler(fn func())
	SetMessageHandler(fn func(data []byte))
	SetErrorHandler(fn func(err error))
	SetCloseHandler(fn func(code int, reason string))
}
