// Package api talks to the HTTP endpoints that sit beside the voice
// gateway: minting a join code and fetching the server metadata that names
// the gateway's websocket URL.
//
// HTTPClient calls a real server; Dummy answers offline with a random code
// and a fixed welcome message.
package api
