// ABOUTME: Offline implementation of the join-code and metadata API
// ABOUTME: Mints random XXX-XXX-XXX codes and serves a fixed welcome message
package api

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CodeAlphabet is the character set of minted join codes
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// DefaultDummyWebSocketURL is the gateway Dummy points clients at
const DefaultDummyWebSocketURL = "ws://127.0.0.1:65437/gateway"

// Dummy answers without a server
type Dummy struct {
	WebSocketURL string
}

// NewDummy creates an offline API pointing at websocketURL, or the
// default local gateway when empty
func NewDummy(websocketURL string) *Dummy {
	if websocketURL == "" {
		websocketURL = DefaultDummyWebSocketURL
	}
	return &Dummy{WebSocketURL: websocketURL}
}

// CreateCode returns three groups of three random characters
func (d *Dummy) CreateCode(ctx context.Context) (string, error) {
	var groups [3]string
	for i := range groups {
		g, err := gonanoid.Generate(CodeAlphabet, 3)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		groups[i] = g
	}
	return groups[0] + "-" + groups[1] + "-" + groups[2], nil
}

// Meta returns the fixed offline metadata
func (d *Dummy) Meta(ctx context.Context) (Meta, error) {
	return Meta{
		WelcomeMsg:   "Welcome to proximity chat for the server!",
		AltAccounts:  true,
		WebSocketURL: d.WebSocketURL,
	}, nil
}
