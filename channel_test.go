// Copyright 2026 The ws-wrapper Authors. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package wswrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Channel_Of_returns_same_instance(t *testing.T) {
	c := New(nil)
	one := c.Of("one")
	assert.Same(t, one, c.Of("one"))
	assert.NotSame(t, one, c.Of("two"))
}

func Test_Channel_default_is_the_conn(t *testing.T) {
	c := New(nil)
	assert.Same(t, &c.Channel, c.Of(""))
	assert.Equal(t, "", c.Name())
	assert.Equal(t, "one", c.Of("one").Name())
}

func Test_Channel_String(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "[Channel default]", c.Channel.String())
	assert.Equal(t, `[Channel "rpc"]`, c.Of("rpc").String())
}

func Test_Channel_Emit_tags_namespace(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	assert.NoError(t, c.Of("rpc").Emit("evt", 1))
	assert.NoError(t, c.Emit("evt", 2))

	assert.JSONEq(t, `{"a":["evt",1],"c":"rpc"}`, string(fs.sent[0]))
	assert.JSONEq(t, `{"a":["evt",2]}`, string(fs.sent[1]))
}

func Test_Channel_Emit_unmarshalable_argument(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	assert.Error(t, c.Emit("evt", func() {}))
	assert.Empty(t, fs.sent)
}

func Test_Channel_On_and_off(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	var got int
	off := c.On("evt", func(ev *Event) (any, error) { got++; return nil, nil })

	fs.message(`{"a":["evt"]}`)
	off()
	fs.message(`{"a":["evt"]}`)

	assert.Equal(t, 1, got)
}

func Test_Channel_Off_removes_all_listeners(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	var got int
	c.On("evt", func(ev *Event) (any, error) { got++; return nil, nil })
	c.On("evt", func(ev *Event) (any, error) { got++; return nil, nil })
	c.Off("evt")

	fs.message(`{"a":["evt"]}`)

	assert.Zero(t, got)
}

func Test_Channel_Once_fires_once(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	var got int
	c.Once("evt", func(ev *Event) (any, error) { got++; return nil, nil })

	fs.message(`{"a":["evt"]}`)
	fs.message(`{"a":["evt"]}`)

	assert.Equal(t, 1, got)
}

func Test_Channel_dispatch_order_and_last_result(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	var order []int
	c.On("evt", func(ev *Event) (any, error) { order = append(order, 1); return "first", nil })
	c.On("evt", func(ev *Event) (any, error) { order = append(order, 2); return "last", nil })

	fs.message(`{"a":["evt"],"i":6}`)

	assert.Equal(t, []int{1, 2}, order)
	assert.JSONEq(t, `{"i":6,"d":"last"}`, string(fs.sent[0]))
}

func Test_Channel_handler_may_emit_reentrantly(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	c.On("evt", func(ev *Event) (any, error) {
		return nil, c.Of("out").Emit("relay")
	})

	fs.message(`{"a":["evt"]}`)

	assert.Len(t, fs.sent, 1)
	assert.JSONEq(t, `{"a":["relay"],"c":"out"}`, string(fs.sent[0]))
}

func Test_Event_Decode_too_few_arguments(t *testing.T) {
	fs := newFakeSocket(Open)
	c := New(fs)
	var decodeErr error
	c.On("evt", func(ev *Event) (any, error) {
		var a, b int
		decodeErr = ev.Decode(&a, &b)
		return nil, nil
	})

	fs.message(`{"a":["evt",1]}`)

	assert.Error(t, decodeErr)
}
