// ABOUTME: Connection state machine as a pure transition function
// ABOUTME: Maps (state, event) to the next state plus the effects the client must apply
package protocol

import (
	"encoding/json"
	"fmt"
)

// StateKind enumerates the connection lifecycle
type StateKind int

const (
	StateTempJoin StateKind = iota
	StateFullRejoin
	StateAwaitingSessionAck
	StateAwaitingFirstPresence
	StateOffline
	StateOnline
)

func (k StateKind) String() string {
	switch k {
	case StateTempJoin:
		return "temp-join"
	case StateFullRejoin:
		return "full-rejoin"
	case StateAwaitingSessionAck:
		return "awaiting-session-ack"
	case StateAwaitingFirstPresence:
		return "awaiting-first-presence"
	case StateOffline:
		return "offline"
	case StateOnline:
		return "online"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the current connection state. Code and UUID are only
// meaningful for the two initial kinds.
type State struct {
	Kind StateKind
	Code string
	UUID string
}

// TempJoin is the initial state for joining with a freshly minted code
func TempJoin(code string) State {
	return State{Kind: StateTempJoin, Code: code}
}

// FullRejoin is the initial state for resuming an existing account
func FullRejoin(uuid, code string) State {
	return State{Kind: StateFullRejoin, Code: code, UUID: uuid}
}

func (s State) String() string {
	switch s.Kind {
	case StateTempJoin:
		return fmt.Sprintf("%s{code=%s}", s.Kind, s.Code)
	case StateFullRejoin:
		return fmt.Sprintf("%s{uuid=%s code=%s}", s.Kind, s.UUID, s.Code)
	default:
		return s.Kind.String()
	}
}

// Event is an input to Transition
type Event interface {
	isEvent()
}

// StartEvent begins the handshake
type StartEvent struct{}

// TextEvent is an inbound text frame
type TextEvent struct {
	Data []byte
}

// BinaryEvent is an inbound binary frame
type BinaryEvent struct {
	Data []byte
}

func (StartEvent) isEvent()  {}
func (TextEvent) isEvent()   {}
func (BinaryEvent) isEvent() {}

// Effect is an action the client performs after a transition
type Effect interface {
	isEffect()
}

// SendText writes a text frame to the transport
type SendText struct {
	Data []byte
}

// SessionEstablished reports the gateway's session payload
type SessionEstablished struct {
	Session SessionInfo
}

// Connected fires once, on the first presence update
type Connected struct {
	Presence Presence
}

// PresenceChanged reports every later presence update
type PresenceChanged struct {
	Presence Presence
}

// Fail surfaces an error to the caller; the state is left unchanged
type Fail struct {
	Err error
}

// AudioReceived carries a decoded audio frame
type AudioReceived struct {
	Frame AudioFrame
}

// RotationReceived carries a listener orientation update
type RotationReceived struct {
	Update RotationUpdate
}

// Dropped reports a binary frame that failed to decode. It is counted, not surfaced.
type Dropped struct {
	Err error
}

func (SendText) isEffect()           {}
func (SessionEstablished) isEffect() {}
func (Connected) isEffect()          {}
func (PresenceChanged) isEffect()    {}
func (Fail) isEffect()               {}
func (AudioReceived) isEffect()      {}
func (RotationReceived) isEffect()   {}
func (Dropped) isEffect()            {}

// Transition computes the next state and effects. It never performs I/O.
func Transition(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case StartEvent:
		return start(s)
	case TextEvent:
		return onText(s, ev.Data)
	case BinaryEvent:
		return onBinary(s, ev.Data)
	default:
		return s, nil
	}
}

func start(s State) (State, []Effect) {
	var req JoinRequest
	switch s.Kind {
	case StateTempJoin:
		req = JoinRequest{ProtocolV: ProtocolVersion, Type: JoinTemp, Code: s.Code}
	case StateFullRejoin:
		req = JoinRequest{ProtocolV: ProtocolVersion, Type: JoinFull, Code: s.Code, UUID: s.UUID}
	default:
		// Already started
		return s, nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return s, []Effect{Fail{Err: fmt.Errorf("encode join request: %w", err)}}
	}

	return State{Kind: StateAwaitingSessionAck}, []Effect{SendText{Data: data}}
}

func onText(s State, data []byte) (State, []Effect) {
	switch s.Kind {
	case StateTempJoin, StateFullRejoin:
		return s, []Effect{Fail{Err: fmt.Errorf("%w: text frame before handshake", ErrMalformedControl)}}
	}

	msg, err := ParseControl(data)
	if err != nil {
		return s, []Effect{Fail{Err: err}}
	}
	if err := msg.Err(); err != nil {
		return s, []Effect{Fail{Err: err}}
	}

	if s.Kind == StateAwaitingSessionAck {
		return State{Kind: StateAwaitingFirstPresence}, []Effect{SessionEstablished{Session: msg.Session()}}
	}

	presence, err := msg.Presence()
	if err != nil {
		return s, []Effect{Fail{Err: err}}
	}

	next := State{Kind: StateOffline}
	if presence == PresenceOnline {
		next.Kind = StateOnline
	}

	if s.Kind == StateAwaitingFirstPresence {
		return next, []Effect{Connected{Presence: presence}}
	}
	return next, []Effect{PresenceChanged{Presence: presence}}
}

func onBinary(s State, data []byte) (State, []Effect) {
	if s.Kind != StateOnline {
		return s, []Effect{Fail{Err: fmt.Errorf("%w: %d bytes in state %s", ErrUnexpectedBinaryFrame, len(data), s.Kind)}}
	}

	pkt, err := DecodePacket(data)
	if err != nil {
		return s, []Effect{Dropped{Err: err}}
	}

	switch p := pkt.(type) {
	case AudioFrame:
		return s, []Effect{AudioReceived{Frame: p}}
	case RotationUpdate:
		return s, []Effect{RotationReceived{Update: p}}
	default:
		return s, nil
	}
}
