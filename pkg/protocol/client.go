// ABOUTME: WebSocket client for the voice gateway
// ABOUTME: Drives the state machine from inbound frames and gates outbound audio on Online
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// DefaultConnectTimeout bounds the websocket handshake
const DefaultConnectTimeout = 10 * time.Second

// Transport is the subset of *websocket.Conn the client needs
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialConfig describes how to reach the gateway
type DialConfig struct {
	URL            string
	ConnectTimeout time.Duration
	Header         http.Header
}

// Dial opens the gateway websocket. Failures wrap ErrConnectFailure.
func Dial(ctx context.Context, cfg DialConfig) (*websocket.Conn, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.ConnectTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: %v (status %d)", ErrConnectFailure, cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectFailure, cfg.URL, err)
	}
	return conn, nil
}

// ClientConfig holds optional client settings
type ClientConfig struct {
	Logger *log.Logger
}

// Stats are cumulative frame counters
type Stats struct {
	TextFrames       uint64
	AudioFrames      uint64
	Rotations        uint64
	Dropped          uint64 // binary frames that failed to decode
	UnexpectedBinary uint64 // binary frames received outside Online
	Errors           uint64
	Sent             uint64
}

// Client owns one gateway connection
type Client struct {
	transport Transport
	logger    *log.Logger

	mu    sync.Mutex
	state State

	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	obsMu        sync.RWMutex
	observers    map[int]Observer
	nextObserver int

	textFrames       atomic.Uint64
	audioFrames      atomic.Uint64
	rotations        atomic.Uint64
	dropped          atomic.Uint64
	unexpectedBinary atomic.Uint64
	failures         atomic.Uint64
	sent             atomic.Uint64

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an open transport. initial must be TempJoin or FullRejoin.
func NewClient(t Transport, initial State, cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		transport: t,
		logger:    logger.WithPrefix("protocol"),
		state:     initial,
		observers: make(map[int]Observer),
		done:      make(chan struct{}),
	}
}

// State returns the current connection state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the frame counters
func (c *Client) Stats() Stats {
	return Stats{
		TextFrames:       c.textFrames.Load(),
		AudioFrames:      c.audioFrames.Load(),
		Rotations:        c.rotations.Load(),
		Dropped:          c.dropped.Load(),
		UnexpectedBinary: c.unexpectedBinary.Load(),
		Errors:           c.failures.Load(),
		Sent:             c.sent.Load(),
	}
}

// Done is closed once the close notification has fired
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Start sends the join request
func (c *Client) Start() error {
	return c.dispatch(StartEvent{})
}

// Run reads frames until the transport fails, ctx is cancelled, or Close is
// called. It returns nil after a local close.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	for {
		msgType, data, err := c.transport.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				c.fireClose(nil)
				return nil
			}
			c.logger.Info("Connection closed", "err", err)
			c.fireClose(err)
			return fmt.Errorf("read: %w", err)
		}

		c.handleFrame(msgType, data)
	}
}

// handleFrame feeds one transport frame through the state machine
func (c *Client) handleFrame(msgType int, data []byte) {
	var ev Event
	switch msgType {
	case websocket.TextMessage:
		c.textFrames.Add(1)
		ev = TextEvent{Data: data}
	case websocket.BinaryMessage:
		ev = BinaryEvent{Data: data}
	default:
		return
	}

	if err := c.dispatch(ev); err != nil {
		c.logger.Error("Failed to apply event", "err", err)
	}
}

// dispatch runs one transition and applies its effects
func (c *Client) dispatch(ev Event) error {
	c.mu.Lock()
	prev := c.state
	next, effects := Transition(prev, ev)
	c.state = next
	c.mu.Unlock()

	if prev.Kind != next.Kind {
		c.logger.Debug("State changed", "from", prev.Kind, "to", next.Kind)
	}

	var firstErr error
	for _, eff := range effects {
		err := c.apply(eff)
		if err == nil || firstErr != nil {
			continue
		}
		firstErr = err

		// The join request never left, so the ack is not coming
		if _, ok := eff.(SendText); ok {
			c.mu.Lock()
			if c.state == next {
				c.state = prev
			}
			c.mu.Unlock()
		}
	}
	return firstErr
}

func (c *Client) apply(eff Effect) error {
	switch e := eff.(type) {
	case SendText:
		c.logger.Debug("Sending join request", "payload", string(e.Data))
		if err := c.write(websocket.TextMessage, e.Data); err != nil {
			return fmt.Errorf("send join request: %w", err)
		}

	case SessionEstablished:
		c.logger.Info("Session established", "code", e.Session.Code, "uuid", e.Session.UUID, "username", e.Session.Username)
		if !c.notify(func(o Observer) { o.OnSession(e.Session) }) {
			c.logger.Warn("No observer registered for session", "uuid", e.Session.UUID)
		}

	case Connected:
		c.logger.Info("Connected", "presence", e.Presence)
		if !c.notify(func(o Observer) { o.OnConnect(e.Presence) }) {
			c.logger.Warn("No observer registered for connect")
		}

	case PresenceChanged:
		c.logger.Info("Presence changed", "presence", e.Presence)
		c.notify(func(o Observer) { o.OnPresence(e.Presence) })

	case Fail:
		c.failures.Add(1)
		if errors.Is(e.Err, ErrUnexpectedBinaryFrame) {
			c.unexpectedBinary.Add(1)
		}
		c.logger.Error("Protocol error", "err", e.Err)
		c.notify(func(o Observer) { o.OnError(e.Err) })

	case AudioReceived:
		c.audioFrames.Add(1)
		if !c.notify(func(o Observer) { o.OnAudio(e.Frame) }) {
			c.logger.Debug("No observer registered for audio", "speaker", e.Frame.Speaker)
		}

	case RotationReceived:
		c.rotations.Add(1)
		c.notify(func(o Observer) { o.OnRotation(e.Update) })

	case Dropped:
		c.dropped.Add(1)
		c.logger.Debug("Dropped binary frame", "err", e.Err)
	}
	return nil
}

// Send writes a raw codec payload. It is a no-op unless the session is Online.
func (c *Client) Send(payload []byte) error {
	if c.State().Kind != StateOnline || c.closing.Load() {
		return nil
	}

	if err := c.write(websocket.BinaryMessage, payload); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	c.sent.Add(1)
	return nil
}

func (c *Client) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteMessage(msgType, data)
}

// Close shuts the transport down. The close notification fires once.
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}

	err := c.transport.Close()

	c.fireClose(nil)
	return err
}

func (c *Client) fireClose(err error) {
	c.closeOnce.Do(func() {
		c.notify(func(o Observer) { o.OnClose(err) })
		close(c.done)
	})
}
