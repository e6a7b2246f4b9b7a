// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// QueueFullError is returned by send operations when the connection is not
// open and the send queue is at capacity.
type QueueFullError struct{}

func (QueueFullError) Error() string { return "websocket is not connected and the send queue is full" }

// AbortedError is the error pending calls are rejected with by Conn.Abort.
type AbortedError struct{}

func (AbortedError) Error() string { return "request was aborted" }

// Conn wraps one physical socket and multiplexes channels over it. The
// embedded Channel is the default (unnamed) namespace, so a Conn exposes the
// full channel surface (Emit, Request, On, ...) directly.
//
// The exported configuration fields and callbacks must be assigned before
// Bind. Callbacks are invoked from whatever goroutine delivers the socket
// callbacks; they may call back into the Conn.
type Conn struct {
	Channel // the default namespace

	// SendQueueLimit is the maximum number of messages queued while the
	// connection is not open. New sets it to DefaultSendQueueLimit.
	SendQueueLimit int
	// RequestTimeout, when non-zero, rejects each pending call with a
	// TimeoutError if no reply arrives in time. Zero keeps the protocol's
	// original behavior: an unanswered call stays pending until Abort.
	RequestTimeout time.Duration

	// OnOpen is called after the socket opens and the send queue drains.
	OnOpen func()
	// OnMessage is called with every raw inbound payload before routing.
	OnMessage func(data []byte)
	// OnError is called when the socket reports an error, and when
	// transmission fails while draining the send queue.
	OnError func(err error)
	// OnDisconnect is called when the socket closes. wasOpen distinguishes a
	// dropped connection from one that never opened.
	OnDisconnect func(wasOpen bool)

	mu        sync.Mutex
	socket    Socket
	opened    bool
	sendQueue [][]byte
	lastID    uint64
	pending   map[uint64]*pendingCall
	channels  map[string]*Channel
	userData  map[string]any

	serialNumber uint32
	netLog       bool // if true, log envelope traffic using log.Print()
}

var connNextSerialNumber uint32

// New creates a Conn. The socket may be nil and bound later with Bind.
func New(socket Socket) *Conn {
	c := &Conn{
		SendQueueLimit: DefaultSendQueueLimit,
		pending:        make(map[uint64]*pendingCall),
		channels:       make(map[string]*Channel),
		userData:       make(map[string]any),
		serialNumber:   atomic.AddUint32(&connNextSerialNumber, 1),
	}
	c.Channel.init(c, "")
	if socket != nil {
		c.Bind(socket)
	}
	return c
}

func (c *Conn) String() string {
	return fmt.Sprintf("[Conn %x]", c.serialNumber)
}

// NetLog enables or disables logging of envelope traffic.
func (c *Conn) NetLog(state bool) {
	c.mu.Lock()
	c.netLog = state
	c.mu.Unlock()
}

// Bind attaches a socket to the Conn and hooks its callbacks. If the socket
// is already open the open handling runs synchronously before Bind returns,
// draining any queued messages.
func (c *Conn) Bind(socket Socket) {
	c.mu.Lock()
	c.socket = socket
	c.mu.Unlock()
	socket.SetOpenHandler(c.handleOpen)
	socket.SetMessageHandler(c.handleMessage)
	socket.SetErrorHandler(c.handleError)
	socket.SetCloseHandler(c.handleClose)
	if socket.ReadyState() == Open {
		c.handleOpen()
	}
}

// Socket returns the currently bound socket, or nil.
func (c *Conn) Socket() Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket
}

// Of returns the Channel for the given namespace, creating it on first use.
// The empty namespace is the default channel, which is the Conn itself.
func (c *Conn) Of(namespace string) *Channel {
	if namespace == "" {
		return &c.Channel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[namespace]
	if !ok {
		ch = &Channel{}
		ch.init(c, namespace)
		c.channels[namespace] = ch
	}
	return ch
}

// lookup returns the cached Channel for a namespace without creating it.
func (c *Conn) lookup(namespace string) *Channel {
	if namespace == "" {
		return &c.Channel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[namespace]
}

// Get returns the value stored under key in the free-form user data store.
func (c *Conn) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userData[key]
}

// Set stores a value under key in the free-form user data store.
func (c *Conn) Set(key string, value any) {
	c.mu.Lock()
	c.userData[key] = value
	c.mu.Unlock()
}

// Send submits one pre-serialized payload. When the connection is open it is
// transmitted immediately; otherwise it is appended to the send queue, which
// fails with QueueFullError at capacity unless bypassQueueLimit is set.
func (c *Conn) Send(data []byte, bypassQueueLimit bool) error {
	return c.sendBytes(data, bypassQueueLimit)
}

func (c *Conn) sendBytes(data []byte, bypass bool) error {
	c.mu.Lock()
	if c.opened && c.socket != nil {
		socket := c.socket
		if c.netLog {
			log.Print("SEND ", c, " ", string(data))
		}
		c.mu.Unlock()
		return errors.WithStack(socket.Send(data))
	}
	if bypass || len(c.sendQueue) < c.SendQueueLimit {
		c.sendQueue = append(c.sendQueue, data)
		if c.netLog {
			log.Print("QUEU ", c, " ", string(data))
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return errors.WithStack(QueueFullError{})
}

// Disconnect closes the bound socket, forwarding the close code and reason.
// It is a no-op when no socket is bound. The local state changes when the
// socket's close callback fires.
func (c *Conn) Disconnect(code int, reason string) error {
	c.mu.Lock()
	socket := c.socket
	c.mu.Unlock()
	if socket == nil {
		return nil
	}
	return errors.WithStack(socket.Close(code, reason))
}

// Abort rejects every pending call with an AbortedError and clears both the
// correlation table and the send queue. It does not close the socket and
// does not change the connection state; it is a local-only reset of
// in-flight work.
func (c *Conn) Abort() {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[uint64]*pendingCall)
	c.sendQueue = nil
	c.mu.Unlock()
	for _, pc := range pending {
		pc.stopTimer()
		pc.call.reject(errors.WithStack(AbortedError{}))
	}
}

// Pending returns the number of calls awaiting a reply.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// addPending allocates the next request id and registers a new pending call,
// arming the request timeout when one is configured.
func (c *Conn) addPending() *Call {
	c.mu.Lock()
	c.lastID++
	id := c.lastID
	pc := &pendingCall{call: newCall(id)}
	if c.RequestTimeout > 0 {
		pc.timer = time.AfterFunc(c.RequestTimeout, func() {
			c.rejectPending(id, errors.WithStack(TimeoutError{}))
		})
	}
	c.pending[id] = pc
	c.mu.Unlock()
	return pc.call
}

// takePending removes and returns the pending call for id, or nil.
// Removal happens exactly once, so each call settles at most once.
func (c *Conn) takePending(id uint64) *pendingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc := c.pending[id]
	if pc != nil {
		delete(c.pending, id)
	}
	return pc
}

// cancelPending removes a pending call without settling it, used when the
// request could not be submitted.
func (c *Conn) cancelPending(id uint64) {
	if pc := c.takePending(id); pc != nil {
		pc.stopTimer()
	}
}

func (c *Conn) rejectPending(id uint64, err error) {
	if pc := c.takePending(id); pc != nil {
		pc.stopTimer()
		pc.call.reject(err)
	}
}

// handleOpen marks the connection open and drains the send queue in FIFO
// order. If the connection stops being open mid-drain, the untransmitted
// remainder stays at the front of the queue. Safe to re-enter.
func (c *Conn) handleOpen() {
	c.mu.Lock()
	c.opened = true
	for len(c.sendQueue) > 0 && c.opened && c.socket != nil {
		data := c.sendQueue[0]
		c.sendQueue = c.sendQueue[1:]
		socket := c.socket
		if c.netLog {
			log.Print("SEND ", c, " ", string(data))
		}
		c.mu.Unlock()
		err := socket.Send(data)
		c.mu.Lock()
		if err != nil {
			// retain the message and stop; no reordering, no loss
			c.sendQueue = append([][]byte{data}, c.sendQueue...)
			c.mu.Unlock()
			c.reportError(errors.WithStack(err))
			c.mu.Lock()
			break
		}
	}
	c.mu.Unlock()
	if c.OnOpen != nil {
		c.OnOpen()
	}
}

// handleMessage forwards every raw inbound payload to OnMessage and then to
// the message router.
func (c *Conn) handleMessage(data []byte) {
	c.mu.Lock()
	if c.netLog {
		log.Print("READ ", c, " ", string(data))
	}
	c.mu.Unlock()
	if c.OnMessage != nil {
		c.OnMessage(data)
	}
	c.route(data)
}

func (c *Conn) handleError(err error) {
	c.reportError(err)
}

func (c *Conn) reportError(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// handleClose marks the connection closed and reports whether it had
// previously been open.
func (c *Conn) handleClose(code int, reason string) {
	c.mu.Lock()
	wasOpen := c.opened
	c.opened = false
	if c.netLog {
		log.Print("CLOS ", c, " code ", code, " reason ", reason)
	}
	c.mu.Unlock()
	if c.OnDisconnect != nil {
		c.OnDisconnect(wasOpen)
	}
}
