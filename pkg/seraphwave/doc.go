// ABOUTME: High-level seraphwave library API
// ABOUTME: One Client wires the gateway connection, spatial playback and uplink capture
// Package seraphwave provides the high-level voice chat client.
//
// This is the main entry point for most library users. A Client:
//   - fetches the server metadata and, if needed, mints a join code
//   - dials the gateway and runs the join handshake
//   - decodes every speaker through its own jitter buffer into a spatial mixer
//   - plays the mix on an output device
//   - captures, encodes and uplinks local audio while Online
//
// For lower-level control, see the protocol, jitter, spatial, capture and
// api packages.
//
// Example:
//
//	client, err := seraphwave.New(seraphwave.Config{
//	    API:   api.NewDummy(""),
//	    Input: &capture.Device{},
//	    OnSession: func(s protocol.SessionInfo) {
//	        fmt.Println("joined as", s.Username)
//	    },
//	})
//	err = client.Connect(ctx)
//	<-client.Done()
package seraphwave
