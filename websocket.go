// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// DefaultWriteTimeout is how long a WebSocket waits to send.
	DefaultWriteTimeout = time.Second * 10
)

// NotOpenError is returned by WebSocket.Send when the socket is not open.
type NotOpenError struct{}

func (NotOpenError) Error() string { return "websocket is not open" }

// WebSocket adapts a gorilla websocket connection to the Socket interface.
//
// Use NewWebSocket to wrap an already-established connection (either side of
// an upgrade), or Dial to create one in the Connecting state that connects
// when Listen starts. Listen must be running for inbound messages and close
// notifications to be delivered.
type WebSocket struct {
	// WriteTimeout bounds each outbound write. NewWebSocket and Dial set it
	// to DefaultWriteTimeout.
	WriteTimeout time.Duration

	dialer *websocket.Dialer
	url    string
	header http.Header

	mu    sync.Mutex // guards conn, state and handlers
	conn  *websocket.Conn
	state ReadyState

	openFn    func()
	messageFn func(data []byte)
	errorFn   func(err error)
	closeFn   func(code int, reason string)

	wmu sync.Mutex // serializes writes to conn
}

// NewWebSocket wraps an established gorilla connection. The socket starts in
// the Open state, so binding it to a Conn drains the queue immediately.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{
		WriteTimeout: DefaultWriteTimeout,
		conn:         conn,
		state:        Open,
	}
}

// Dial returns a WebSocket in the Connecting state. The connection to url is
// established when Listen is called; the open handler fires on success.
func Dial(url string, requestHeader http.Header) *WebSocket {
	return &WebSocket{
		WriteTimeout: DefaultWriteTimeout,
		dialer:       websocket.DefaultDialer,
		url:          url,
		header:       requestHeader,
		state:        Connecting,
	}
}

// ReadyState reports the current connection state.
func (ws *WebSocket) ReadyState() ReadyState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

func (ws *WebSocket) SetOpenHandler(fn func()) {
	ws.mu.Lock()
	ws.openFn = fn
	ws.mu.Unlock()
}

func (ws *WebSocket) SetMessageHandler(fn func(data []byte)) {
	ws.mu.Lock()
	ws.messageFn = fn
	ws.mu.Unlock()
}

func (ws *WebSocket) SetErrorHandler(fn func(err error)) {
	ws.mu.Lock()
	ws.errorFn = fn
	ws.mu.Unlock()
}

func (ws *WebSocket) SetCloseHandler(fn func(code int, reason string)) {
	ws.mu.Lock()
	ws.closeFn = fn
	ws.mu.Unlock()
}

// Send transmits one message as a websocket text frame.
func (ws *WebSocket) Send(data []byte) error {
	ws.mu.Lock()
	conn, state := ws.conn, ws.state
	ws.mu.Unlock()
	if conn == nil || state != Open {
		return errors.WithStack(NotOpenError{})
	}
	ws.wmu.Lock()
	defer ws.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(ws.WriteTimeout))
	return errors.WithStack(conn.WriteMessage(websocket.TextMessage, data))
}

// Close starts the websocket closing handshake with the given status code
// and reason. The close handler fires when the handshake completes, from the
// goroutine running Listen. Closing a socket that is still Connecting marks
// it Closed and fires the close handler directly.
func (ws *WebSocket) Close(code int, reason string) error {
	ws.mu.Lock()
	conn := ws.conn
	if conn == nil {
		ws.state = Closed
		ws.mu.Unlock()
		ws.callClose(code, reason)
		return nil
	}
	if ws.state == Open {
		ws.state = Closing
	}
	ws.mu.Unlock()

	msg := websocket.FormatCloseMessage(code, reason)
	ws.wmu.Lock()
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ws.WriteTimeout))
	ws.wmu.Unlock()
	if err != nil && err != websocket.ErrCloseSent {
		// handshake failed, tear the connection down; Listen reports the close
		return errors.WithStack(conn.Close())
	}
	return nil
}

// Listen connects if the socket was created with Dial, then reads messages
// until the connection closes. It blocks; run it on its own goroutine after
// binding the socket to a Conn. The returned error is nil after a clean
// closing handshake.
func (ws *WebSocket) Listen() error {
	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()

	if conn == nil {
		c, _, err := ws.dialer.Dial(ws.url, ws.header)
		if err != nil {
			ws.mu.Lock()
			ws.state = Closed
			ws.mu.Unlock()
			ws.callError(errors.Wrapf(err, "dial %s", ws.url))
			ws.callClose(websocket.CloseAbnormalClosure, "")
			return errors.WithStack(err)
		}
		ws.mu.Lock()
		ws.conn = c
		ws.state = Open
		ws.mu.Unlock()
		conn = c
		ws.callOpen()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			ws.callMessage(data)
			continue
		}

		ws.mu.Lock()
		wasClosing := ws.state == Closing
		ws.state = Closed
		ws.mu.Unlock()
		conn.Close()

		if ce, ok := errors.Cause(err).(*websocket.CloseError); ok {
			ws.callClose(ce.Code, ce.Text)
			return nil
		}
		if !wasClosing {
			ws.callError(errors.WithStack(err))
		}
		ws.callClose(websocket.CloseAbnormalClosure, "")
		if wasClosing {
			return nil
		}
		return errors.WithStack(err)
	}
}

func (ws *WebSocket) callOpen() {
	ws.mu.Lock()
	fn := ws.openFn
	ws.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (ws *WebSocket) callMessage(data []byte) {
	ws.mu.Lock()
	fn := ws.messageFn
	ws.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

func (ws *WebSocket) callError(err error) {
	ws.mu.Lock()
	fn := ws.errorFn
	ws.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (ws *WebSocket) callClose(code int, reason string) {
	ws.mu.Lock()
	fn := ws.closeFn
	ws.mu.Unlock()
	if fn != nil {
		fn(code, reason)
	}
}
