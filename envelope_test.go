package wswrapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Envelope_wire_field_names(t *testing.T) {
	no := false
	env := Envelope{
		Args:    []json.RawMessage{json.RawMessage(`"evt"`), json.RawMessage(`1`)},
		Channel: "rpc",
		ID:      3,
		Data:    json.RawMessage(`"ok"`),
		Error:   json.RawMessage(`"bad"`),
		NoWrap:  &no,
	}
	b, err := json.Marshal(&env)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":["evt",1],"c":"rpc","i":3,"d":"ok","e":"bad","ws-wrapper":false}`, string(b))
}

func Test_Envelope_empty_fields_are_omitted(t *testing.T) {
	b, err := json.Marshal(&Envelope{ID: 1})
	assert.NoError(t, err)
	assert.Equal(t, `{"i":1}`, string(b))
}

func Test_Envelope_null_error_is_preserved(t *testing.T) {
	b, err := json.Marshal(&Envelope{ID: 1, Error: json.RawMessage("null")})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"i":1,"e":null}`, string(b))

	var env Envelope
	assert.NoError(t, json.Unmarshal(b, &env))
	assert.NotNil(t, env.Error)
}

func Test_Envelope_EventName(t *testing.T) {
	var env Envelope
	_, ok := env.EventName()
	assert.False(t, ok)

	env.Args = []json.RawMessage{json.RawMessage(`42`)}
	_, ok = env.EventName()
	assert.False(t, ok)

	env.Args = []json.RawMessage{json.RawMessage(`"evt"`), json.RawMessage(`42`)}
	name, ok := env.EventName()
	assert.True(t, ok)
	assert.Equal(t, "evt", name)
}

func Test_Envelope_isEvent_reserved_names(t *testing.T) {
	env := Envelope{Args: []json.RawMessage{json.RawMessage(`"disconnect"`)}}
	_, ok := env.isEvent()
	assert.False(t, ok)

	env.Channel = "sys"
	name, ok := env.isEvent()
	assert.True(t, ok)
	assert.Equal(t, "disconnect", name)

	env = Envelope{Args: []json.RawMessage{json.RawMessage(`"ping"`)}}
	name, ok = env.isEvent()
	assert.True(t, ok)
	assert.Equal(t, "ping", name)
}

func Test_newEventEnvelope(t *testing.T) {
	env, err := newEventEnvelope("rpc", "add", []any{2, 3})
	assert.NoError(t, err)
	b, err := json.Marshal(env)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":["add",2,3],"c":"rpc"}`, string(b))

	_, err = newEventEnvelope("", "add", []any{make(chan int)})
	assert.Error(t, err)
}
