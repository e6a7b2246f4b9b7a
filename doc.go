// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

/*
Package wswrapper multiplexes request/response calls and fire-and-forget events over a single full-duplex, message-oriented socket such as a WebSocket.

A Conn wraps one physical socket. Many logically independent channels share the Conn, each identified by a namespace string. The default (unnamed) channel is the Conn itself. Channels provide isolated event listener scopes; all outbound traffic flows back through the Conn's send machinery.

Events are emitted with Emit and carry an ordered argument list. Requests are issued with Request and return a Call, a future handle that settles when a matching reply envelope arrives, when the Conn is aborted, or when the optional request timeout fires. Request ids are unique and strictly increasing for the lifetime of the Conn.

While the socket is not open, outbound messages accumulate in a bounded FIFO send queue and are drained in order once the socket opens. Replies to remote requests always bypass the queue limit so they cannot be lost to backpressure from new calls.

The wire unit is a small JSON envelope. Inbound frames that fail to parse, carry the explicit opt-out marker, or match no pending call are discarded silently, since the shared transport may legitimately carry foreign traffic. */
package wswrapper
