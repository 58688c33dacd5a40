// ABOUTME: High-level voice chat client
// ABOUTME: Connects the gateway, jitter buffers, spatial mixer, output and capture
package seraphwave

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/seraphwave/seraphwave-go/pkg/api"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/output"
	"github.com/seraphwave/seraphwave-go/pkg/capture"
	"github.com/seraphwave/seraphwave-go/pkg/jitter"
	"github.com/seraphwave/seraphwave-go/pkg/protocol"
	"github.com/seraphwave/seraphwave-go/pkg/spatial"
)

// Config holds client configuration
type Config struct {
	// API supplies the gateway URL and mints join codes
	API api.API

	// Code is the join code. When empty a fresh one is minted through API.
	Code string

	// UUID selects a full rejoin of an existing account instead of a temp join
	UUID string

	// Format is the session audio format (default: opus, 48kHz stereo 16-bit, 60ms)
	Format audio.Format

	// Output plays the spatial mix (default: oto)
	Output output.Output

	// Input is the uplink PCM source. Frames takes precedence when both are set.
	// With neither the client only listens.
	Input  capture.Source
	Frames capture.FrameSource

	// Panner overrides the distance and cone model
	Panner *spatial.PannerConfig

	// ConnectTimeout bounds the websocket handshake
	ConnectTimeout time.Duration

	// UserAgent is sent with the websocket handshake when set
	UserAgent string

	Logger *log.Logger

	// OnSession is called once the gateway acknowledges the join
	OnSession func(protocol.SessionInfo)

	// OnConnect is called on the first presence update
	OnConnect func(protocol.Presence)

	// OnPresence is called on every later presence update
	OnPresence func(protocol.Presence)

	// OnError is called for gateway errors and uplink failures
	OnError func(error)

	// OnClose is called once when the connection ends. err is nil after Close.
	OnClose func(error)
}

// Status describes the connection
type Status struct {
	State    protocol.StateKind
	Code     string
	UUID     string
	Username string
	Meta     api.Meta
	Volume   int
	Muted    bool
}

// Stats gathers the counters of every stage
type Stats struct {
	Protocol protocol.Stats
	Jitter   jitter.Stats
	Mixer    spatial.MixerStats
	Capture  capture.PipelineStats
}

// volumeControl is implemented by outputs with software volume
type volumeControl interface {
	SetVolume(level int)
	SetMuted(muted bool)
	GetVolume() int
	IsMuted() bool
}

// Client is one voice chat session
type Client struct {
	config Config
	logger *log.Logger

	mu       sync.Mutex
	status   Status
	conn     *protocol.Client
	mixer    *spatial.Mixer
	manager  *jitter.Manager
	pipeline *capture.Pipeline
	cancel   context.CancelFunc
	runErr   error
	started  bool

	wg   sync.WaitGroup
	done chan struct{}
}

// New creates a client. Nothing is opened until Connect.
func New(config Config) (*Client, error) {
	if config.API == nil {
		return nil, errors.New("seraphwave: Config.API is required")
	}
	if config.UUID != "" {
		if _, err := uuid.Parse(config.UUID); err != nil {
			return nil, fmt.Errorf("seraphwave: invalid account uuid %q: %w", config.UUID, err)
		}
	}

	if config.Format.Codec == "" {
		config.Format.Codec = audio.CodecOpus
	}
	if config.Format.Params == (audio.Params{}) {
		config.Format.Params = audio.DefaultParams()
	}
	if err := config.Format.Validate(); err != nil {
		return nil, fmt.Errorf("seraphwave: %w", err)
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Output == nil {
		config.Output = output.NewOto(config.Logger)
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = protocol.DefaultConnectTimeout
	}

	c := &Client{
		config: config,
		logger: config.Logger.WithPrefix("seraphwave"),
		done:   make(chan struct{}),
		status: Status{
			State: protocol.StateTempJoin,
			Code:  config.Code,
			UUID:  config.UUID,
		},
	}
	if config.UUID != "" {
		c.status.State = protocol.StateFullRejoin
	}
	if vc, ok := config.Output.(volumeControl); ok {
		c.status.Volume = vc.GetVolume()
	}
	return c, nil
}

// Connect fetches metadata, dials the gateway and starts the join
// handshake, playback and capture. It returns once the join request is
// sent; progress is reported through the callbacks.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("seraphwave: already connected")
	}
	c.started = true
	c.mu.Unlock()

	// A failed attempt leaves the client ready for another Connect
	connected := false
	defer func() {
		if !connected {
			c.mu.Lock()
			c.started = false
			c.mu.Unlock()
		}
	}()

	meta, err := c.config.API.Meta(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Server metadata", "welcome", meta.WelcomeMsg, "gateway", meta.WebSocketURL)

	code := c.config.Code
	if code == "" {
		code, err = c.config.API.CreateCode(ctx)
		if err != nil {
			return err
		}
	}

	initial := protocol.TempJoin(code)
	if c.config.UUID != "" {
		initial = protocol.FullRejoin(c.config.UUID, code)
	}

	var header http.Header
	if c.config.UserAgent != "" {
		header = http.Header{"User-Agent": []string{c.config.UserAgent}}
	}

	ws, err := protocol.Dial(ctx, protocol.DialConfig{
		URL:            meta.WebSocketURL,
		ConnectTimeout: c.config.ConnectTimeout,
		Header:         header,
	})
	if err != nil {
		c.notifyError(err)
		return err
	}

	params := c.config.Format.Params
	mixer := spatial.NewMixer(params, spatial.MixerConfig{Panner: c.config.Panner, Logger: c.config.Logger})
	manager := jitter.NewManager(mixer, jitter.Config{Format: c.config.Format, Logger: c.config.Logger})

	if err := c.config.Output.Open(params, mixer); err != nil {
		ws.Close()
		return fmt.Errorf("failed to open output: %w", err)
	}

	conn := protocol.NewClient(ws, initial, protocol.ClientConfig{Logger: c.config.Logger})
	conn.Observe(c.observer(manager))

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.status.Code = code
	c.status.Meta = meta
	c.status.State = initial.Kind
	c.conn = conn
	c.mixer = mixer
	c.manager = manager
	c.cancel = cancel
	c.mu.Unlock()

	if err := conn.Start(); err != nil {
		cancel()
		conn.Close()
		c.config.Output.Close()

		c.mu.Lock()
		c.conn, c.mixer, c.manager, c.cancel = nil, nil, nil, nil
		c.mu.Unlock()
		return fmt.Errorf("failed to send join request: %w", err)
	}
	connected = true

	c.wg.Add(1)
	go c.run(runCtx, conn)

	if c.config.Frames != nil || c.config.Input != nil {
		c.startUplink(runCtx, conn)
	}

	go func() {
		c.wg.Wait()
		c.teardown()
		close(c.done)
	}()

	return nil
}

func (c *Client) run(ctx context.Context, conn *protocol.Client) {
	defer c.wg.Done()

	err := conn.Run(ctx)

	c.mu.Lock()
	c.runErr = err
	cancel := c.cancel
	c.mu.Unlock()

	// The uplink has nothing to send to once the gateway is gone
	cancel()
}

func (c *Client) startUplink(ctx context.Context, conn *protocol.Client) {
	p := capture.NewPipeline(conn, capture.PipelineConfig{Format: c.config.Format, Logger: c.config.Logger})

	c.mu.Lock()
	c.pipeline = p
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var err error
		if c.config.Frames != nil {
			err = p.RunFrames(ctx, c.config.Frames)
		} else {
			err = p.Run(ctx, c.config.Input)
		}
		if err != nil {
			c.notifyError(fmt.Errorf("uplink stopped: %w", err))
		}
	}()
}

// observer routes protocol events into the jitter manager and the callbacks
func (c *Client) observer(manager *jitter.Manager) protocol.Observer {
	return protocol.ObserverFuncs{
		Session: func(s protocol.SessionInfo) {
			c.mu.Lock()
			c.status.Code = s.Code
			c.status.UUID = s.UUID
			c.status.Username = s.Username
			c.mu.Unlock()

			if c.config.OnSession != nil {
				c.config.OnSession(s)
			}
		},
		Connect: func(p protocol.Presence) {
			if c.config.OnConnect != nil {
				c.config.OnConnect(p)
			}
		},
		Presence: func(p protocol.Presence) {
			if c.config.OnPresence != nil {
				c.config.OnPresence(p)
			}
		},
		Audio: func(f protocol.AudioFrame) {
			if err := manager.HandleAudio(f); err != nil {
				c.logger.Debug("Audio frame skipped", "speaker", f.Speaker, "err", err)
			}
		},
		Rotation: manager.HandleRotation,
		Error:    c.notifyError,
		Close: func(err error) {
			if c.config.OnClose != nil {
				c.config.OnClose(err)
			}
		},
	}
}

// Status returns the current connection status
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.status
	if c.conn != nil {
		s.State = c.conn.State().Kind
	}
	if vc, ok := c.config.Output.(volumeControl); ok {
		s.Volume = vc.GetVolume()
		s.Muted = vc.IsMuted()
	}
	return s
}

// Stats returns a snapshot of every stage's counters
func (c *Client) Stats() Stats {
	c.mu.Lock()
	conn, mixer, manager, pipeline := c.conn, c.mixer, c.manager, c.pipeline
	c.mu.Unlock()

	var stats Stats
	if conn != nil {
		stats.Protocol = conn.Stats()
	}
	if manager != nil {
		stats.Jitter = manager.Stats()
	}
	if mixer != nil {
		stats.Mixer = mixer.Stats()
	}
	if pipeline != nil {
		stats.Capture = pipeline.Stats()
	}
	return stats
}

// SetVolume sets the playback volume (0-100) when the output supports it
func (c *Client) SetVolume(level int) {
	if vc, ok := c.config.Output.(volumeControl); ok {
		vc.SetVolume(level)
	}
}

// Mute sets the playback mute state when the output supports it
func (c *Client) Mute(muted bool) {
	if vc, ok := c.config.Output.(volumeControl); ok {
		vc.SetMuted(muted)
	}
}

// Done is closed after a connected session has ended and every resource
// is released. It stays open if Connect failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the read error that ended the connection, or nil after a local close
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}

// Close ends the session. It does not wait for Done.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, cancel, started := c.conn, c.cancel, c.started
	c.mu.Unlock()

	if !started || conn == nil {
		return nil
	}
	cancel()
	return conn.Close()
}

// teardown releases output and decoders once every goroutine has exited
func (c *Client) teardown() {
	c.mu.Lock()
	manager := c.manager
	c.mu.Unlock()

	if err := c.config.Output.Close(); err != nil {
		c.logger.Warn("Output close failed", "err", err)
	}
	if manager != nil {
		if err := manager.Close(); err != nil {
			c.logger.Warn("Decoder close failed", "err", err)
		}
	}
	c.logger.Info("Session ended")
}

// notifyError calls the OnError callback if set
func (c *Client) notifyError(err error) {
	if c.config.OnError != nil {
		c.config.OnError(err)
	} else {
		c.logger.Error("Client error", "err", err)
	}
}
