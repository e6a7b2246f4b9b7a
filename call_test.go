// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"context"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Call_Decode_before_settle(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	call, err := c.Request("evt")
	assert.NoError(t, err)

	var v int
	err = call.Decode(&v)
	assert.Equal(t, ErrNotSettled{}, errors.Cause(err))
	assert.NoError(t, call.Err())
}

func Test_Call_Await_resolve(t *testing.T) {
	defer leaktest.Check(t)()

	fs := newFakeSocket(Open)
	c := New(fs)
	call, err := c.Request("value")
	assert.NoError(t, err)

	go fs.message(`{"i":1,"d":{"n":3}}`)

	var v struct {
		N int `json:"n"`
	}
	assert.NoError(t, call.Await(context.Background(), &v))
	assert.Equal(t, 3, v.N)
}

func Test_Call_Await_context_cancel(t *testing.T) {
	defer leaktest.Check(t)()

	fs := newFakeSocket(Open)
	c := New(fs)
	call, err := c.Request("never answered")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = call.Await(ctx, nil)
	assert.Equal(t, context.Canceled, errors.Cause(err))

	// the call itself stays pending; only abort settles it now
	assert.Equal(t, 1, c.Pending())
	c.Abort()
	assert.Equal(t, AbortedError{}, errors.Cause(call.Err()))
}

func Test_Call_request_timeout(t *testing.T) {
	defer leaktest.Check(t)()

	fs := newFakeSocket(Open)
	c := New(fs)
	c.RequestTimeout = 10 * time.Millisecond
	call, err := c.Request("never answered")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = call.Await(ctx, nil)
	assert.Equal(t, TimeoutError{}, errors.Cause(err))
	assert.Zero(t, c.Pending())
}

func Test_Call_timeout_stopped_by_reply(t *testing.T) {
	defer leaktest.Check(t)()

	fs := newFakeSocket(Open)
	c := New(fs)
	c.RequestTimeout = 10 * time.Millisecond
	call, err := c.Request("answered")
	assert.NoError(t, err)

	fs.message(`{"i":1,"d":true}`)
	time.Sleep(30 * time.Millisecond)

	assert.NoError(t, call.Err())
	var v bool
	assert.NoError(t, call.Decode(&v))
	assert.True(t, v)
}

func Test_Call_queue_full_fails_synchronously(t *testing.T) {
	fs := newFakeSocket(Connecting)
	c := New(fs)
	c.SendQueueLimit = 0

	call, err := c.Request("evt")
	assert.Nil(t, call)
	assert.Equal(t, QueueFullError{}, errors.Cause(err))
	assert.Zero(t, c.Pending())
}

func Test_Call_send_error_fails_synchronously(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	fs.onSend = func(fs *fakeSocket, data []byte) error {
		return errors.New("broken pipe")
	}

	call, err := c.Request("evt")
	assert.Nil(t, call)
	assert.Error(t, err)
	assert.Zero(t, c.Pending())
}

func Test_Call_error_texts(t *testing.T) {
	assert.EqualError(t, QueueFullError{}, "websocket is not connected and the send queue is full")
	assert.EqualError(t, AbortedError{}, "request was aborted")
	assert.EqualError(t, TimeoutError{}, "request timed out")
	assert.EqualError(t, RemoteError{}, "request rejected by remote peer")
	assert.EqualError(t, RemoteError{Message: "nope"}, "nope")
	assert.True(t, TimeoutError{}.Timeout())
}
