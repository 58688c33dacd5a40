// ABOUTME: Join-code and metadata API
// ABOUTME: Defines the collaborator interface shared by the HTTP and offline implementations
package api

import (
	"context"
	"errors"
)

// ErrBadStatus is returned when an endpoint answers with a non-2xx status
var ErrBadStatus = errors.New("unexpected http status")

// Meta is the server metadata returned by GET /meta
type Meta struct {
	WelcomeMsg   string `json:"welcomeMsg"`
	AltAccounts  bool   `json:"altAccounts"`
	WebSocketURL string `json:"webSocketUrl"`
}

// API mints join codes and fetches server metadata
type API interface {
	// CreateCode mints a temporary join code to be typed into the game
	CreateCode(ctx context.Context) (string, error)
	Meta(ctx context.Context) (Meta, error)
}
