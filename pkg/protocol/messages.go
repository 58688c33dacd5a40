// ABOUTME: Gateway control message definitions
// ABOUTME: Join requests sent by the client and the text frames the gateway answers with
package protocol

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is sent in every join request
const ProtocolVersion = 0

// Join request types
const (
	JoinTemp = "temp"
	JoinFull = "full"
)

// JoinRequest is the first text frame sent on a connection
type JoinRequest struct {
	ProtocolV int    `json:"protocolV"`
	Type      string `json:"type"` // "temp" or "full"
	Code      string `json:"code"`
	UUID      string `json:"uuid,omitempty"` // only for "full"
}

// Presence is the online/offline status carried by presence updates
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// SessionInfo is the gateway's answer to a join request
type SessionInfo struct {
	Code     string `json:"code"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// ControlMessage is the union of every inbound text frame.
// ErrorCode is a pointer because kind 0 is a valid error.
type ControlMessage struct {
	ErrorCode *ErrorKind `json:"errorCode,omitempty"`
	Msg       string     `json:"msg,omitempty"`

	Code     string `json:"code,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	Username string `json:"username,omitempty"`

	Value Presence `json:"value,omitempty"`
}

// ParseControl decodes an inbound text frame
func ParseControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, fmt.Errorf("%w: %v", ErrMalformedControl, err)
	}
	return msg, nil
}

// Err returns the gateway error carried by the message, if any
func (m ControlMessage) Err() error {
	if m.ErrorCode == nil {
		return nil
	}
	return &ProtocolError{Kind: *m.ErrorCode, Message: m.Msg}
}

// Session extracts the session payload
func (m ControlMessage) Session() SessionInfo {
	return SessionInfo{Code: m.Code, UUID: m.UUID, Username: m.Username}
}

// Presence validates and returns the presence value
func (m ControlMessage) Presence() (Presence, error) {
	switch m.Value {
	case PresenceOnline, PresenceOffline:
		return m.Value, nil
	default:
		return "", fmt.Errorf("%w: unknown presence value %q", ErrMalformedControl, m.Value)
	}
}
