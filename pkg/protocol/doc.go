// ABOUTME: Voice gateway protocol package
// ABOUTME: Wire codec, connection state machine and WebSocket client
// Package protocol implements the voice gateway protocol.
//
// The binary codec decodes tagged audio and rotation frames. The state
// machine is a pure Transition function over State and Event, and Client
// drives it from a websocket, notifying registered observers.
//
// Example:
//
//	conn, err := protocol.Dial(ctx, protocol.DialConfig{URL: meta.WebSocketURL})
//	client := protocol.NewClient(conn, protocol.TempJoin("ABC-123-XYZ"), protocol.ClientConfig{})
//	unobserve := client.Observe(protocol.ObserverFuncs{Audio: onAudio})
//	err = client.Start()
//	err = client.Run(ctx)
package protocol
