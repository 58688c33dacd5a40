// ABOUTME: Tests for the connection transition function
// ABOUTME: Exercises every state/event pair without a socket
package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTempJoin(t *testing.T) {
	next, effects := Transition(TempJoin("ABC-123-XYZ"), StartEvent{})

	require.Equal(t, StateAwaitingSessionAck, next.Kind)
	require.Len(t, effects, 1)

	send, ok := effects[0].(SendText)
	require.True(t, ok, "expected SendText, got %T", effects[0])
	assert.Equal(t, `{"protocolV":0,"type":"temp","code":"ABC-123-XYZ"}`, string(send.Data))
}

func TestStartFullRejoin(t *testing.T) {
	next, effects := Transition(FullRejoin("u1", "ABC-123-XYZ"), StartEvent{})

	require.Equal(t, StateAwaitingSessionAck, next.Kind)
	require.Len(t, effects, 1)
	assert.Equal(t, `{"protocolV":0,"type":"full","code":"ABC-123-XYZ","uuid":"u1"}`,
		string(effects[0].(SendText).Data))
}

func TestStartIsIgnoredOnceStarted(t *testing.T) {
	for _, kind := range []StateKind{StateAwaitingSessionAck, StateAwaitingFirstPresence, StateOffline, StateOnline} {
		next, effects := Transition(State{Kind: kind}, StartEvent{})
		assert.Equal(t, kind, next.Kind)
		assert.Empty(t, effects)
	}
}

func TestSessionAck(t *testing.T) {
	s := State{Kind: StateAwaitingSessionAck}

	next, effects := Transition(s, TextEvent{Data: []byte(`{"code":"ABC-123-XYZ","uuid":"u1","username":"bob"}`)})

	require.Equal(t, StateAwaitingFirstPresence, next.Kind)
	want := []Effect{SessionEstablished{Session: SessionInfo{Code: "ABC-123-XYZ", UUID: "u1", Username: "bob"}}}
	if diff := cmp.Diff(want, effects); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestGatewayErrorsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		kind  StateKind
		input string
		want  ErrorKind
	}{
		{"ack code not found", StateAwaitingSessionAck, `{"errorCode":0,"msg":"no such code"}`, CodeNotFound},
		{"ack consumed", StateAwaitingSessionAck, `{"errorCode":1,"msg":"used"}`, CodeAlreadyConsumed},
		{"ack bad key", StateAwaitingSessionAck, `{"errorCode":2,"msg":"bad"}`, BadSessionKey},
		{"presence bad key", StateAwaitingFirstPresence, `{"errorCode":2,"msg":"bad"}`, BadSessionKey},
		{"online", StateOnline, `{"errorCode":1,"msg":"used"}`, CodeAlreadyConsumed},
		{"offline", StateOffline, `{"errorCode":0}`, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(State{Kind: tt.kind}, TextEvent{Data: []byte(tt.input)})

			require.Equal(t, tt.kind, next.Kind)
			require.Len(t, effects, 1)

			fail, ok := effects[0].(Fail)
			require.True(t, ok, "expected Fail, got %T", effects[0])
			assert.True(t, IsProtocolError(fail.Err, tt.want), "got %v", fail.Err)
		})
	}
}

func TestFirstPresenceConnects(t *testing.T) {
	tests := []struct {
		input string
		want  StateKind
		pres  Presence
	}{
		{`{"value":"online"}`, StateOnline, PresenceOnline},
		{`{"value":"offline"}`, StateOffline, PresenceOffline},
	}

	for _, tt := range tests {
		next, effects := Transition(State{Kind: StateAwaitingFirstPresence}, TextEvent{Data: []byte(tt.input)})
		assert.Equal(t, tt.want, next.Kind)
		assert.Equal(t, []Effect{Connected{Presence: tt.pres}}, effects)
	}
}

func TestPresenceToggles(t *testing.T) {
	tests := []struct {
		from  StateKind
		input string
		want  StateKind
	}{
		{StateOnline, `{"value":"offline"}`, StateOffline},
		{StateOnline, `{"value":"online"}`, StateOnline},
		{StateOffline, `{"value":"online"}`, StateOnline},
		{StateOffline, `{"value":"offline"}`, StateOffline},
	}

	for _, tt := range tests {
		next, effects := Transition(State{Kind: tt.from}, TextEvent{Data: []byte(tt.input)})
		assert.Equal(t, tt.want, next.Kind, "%s + %s", tt.from, tt.input)
		require.Len(t, effects, 1)
		_, ok := effects[0].(PresenceChanged)
		assert.True(t, ok)
	}
}

func TestMalformedTextKeepsState(t *testing.T) {
	for _, kind := range []StateKind{StateAwaitingSessionAck, StateAwaitingFirstPresence, StateOnline} {
		for _, input := range []string{`not json`, `{"value":"sideways"}`} {
			if kind == StateAwaitingSessionAck && input != `not json` {
				continue // any error-free object is a session payload
			}
			next, effects := Transition(State{Kind: kind}, TextEvent{Data: []byte(input)})
			assert.Equal(t, kind, next.Kind)
			require.Len(t, effects, 1)
			assert.True(t, errors.Is(effects[0].(Fail).Err, ErrMalformedControl))
		}
	}
}

func TestBinaryOutsideOnline(t *testing.T) {
	data := EncodeAudioFrame(AudioFrame{Payload: []byte{1}})

	for _, s := range []State{
		TempJoin("c"),
		FullRejoin("u", "c"),
		{Kind: StateAwaitingSessionAck},
		{Kind: StateAwaitingFirstPresence},
		{Kind: StateOffline},
	} {
		next, effects := Transition(s, BinaryEvent{Data: data})
		assert.Equal(t, s, next)
		require.Len(t, effects, 1)
		assert.True(t, errors.Is(effects[0].(Fail).Err, ErrUnexpectedBinaryFrame), "state %s", s)
	}
}

func TestBinaryOnline(t *testing.T) {
	online := State{Kind: StateOnline}

	frame := AudioFrame{Speaker: SpeakerIDFromHalves(1, 2), Payload: []byte{9, 8}}
	next, effects := Transition(online, BinaryEvent{Data: EncodeAudioFrame(frame)})
	assert.Equal(t, online, next)
	if diff := cmp.Diff([]Effect{AudioReceived{Frame: frame}}, effects); diff != "" {
		t.Errorf("audio effects mismatch (-want +got):\n%s", diff)
	}

	rot := RotationUpdate{Rotation: Vec3{Z: -1}}
	_, effects = Transition(online, BinaryEvent{Data: EncodeRotation(rot)})
	assert.Equal(t, []Effect{RotationReceived{Update: rot}}, effects)

	_, effects = Transition(online, BinaryEvent{Data: []byte{0, 1, 2}})
	require.Len(t, effects, 1)
	dropped, ok := effects[0].(Dropped)
	require.True(t, ok)
	assert.True(t, errors.Is(dropped.Err, ErrMalformedPacket))
}

func TestTextBeforeStart(t *testing.T) {
	next, effects := Transition(TempJoin("c"), TextEvent{Data: []byte(`{"value":"online"}`)})
	assert.Equal(t, TempJoin("c"), next)
	require.Len(t, effects, 1)
	_, ok := effects[0].(Fail)
	assert.True(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "temp-join{code=ABC}", TempJoin("ABC").String())
	assert.Equal(t, "full-rejoin{uuid=u code=c}", FullRejoin("u", "c").String())
	assert.Equal(t, "online", State{Kind: StateOnline}.String())
}
