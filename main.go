// ABOUTME: Entry point for the seraphwave voice chat client
// ABOUTME: Merges env config with CLI flags and runs a session with the TUI or streaming logs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seraphwave/seraphwave-go/internal/config"
	"github.com/seraphwave/seraphwave-go/internal/discovery"
	"github.com/seraphwave/seraphwave-go/internal/metrics"
	"github.com/seraphwave/seraphwave-go/internal/ui"
	"github.com/seraphwave/seraphwave-go/internal/version"
	"github.com/seraphwave/seraphwave-go/pkg/api"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/output"
	"github.com/seraphwave/seraphwave-go/pkg/capture"
	"github.com/seraphwave/seraphwave-go/pkg/protocol"
	"github.com/seraphwave/seraphwave-go/pkg/seraphwave"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seraphwave: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Flags default to the environment so either can set a value
	flag.StringVar(&cfg.MetaURL, "meta-url", cfg.MetaURL, "Metadata server base URL, e.g. http://mc.example:8080/")
	flag.BoolVar(&cfg.Discover, "discover", cfg.Discover, "Find the metadata server with mDNS")
	flag.BoolVar(&cfg.Dummy, "dummy", cfg.Dummy, "Use the offline dummy API")
	flag.StringVar(&cfg.Gateway, "gateway", cfg.Gateway, "Gateway websocket URL for -dummy")
	flag.StringVar(&cfg.Code, "code", cfg.Code, "Join code (default: mint a new one)")
	flag.StringVar(&cfg.UUID, "uuid", cfg.UUID, "Account UUID for a full rejoin")
	flag.StringVar(&cfg.Codec, "codec", cfg.Codec, "Session codec: opus or pcm")
	flag.IntVar(&cfg.MsPerFrame, "ms-per-frame", cfg.MsPerFrame, "Frame duration in milliseconds")
	flag.StringVar(&cfg.Input, "input", cfg.Input, "Uplink: device, tone, mp3:PATH, flac:PATH, ogg:PATH or none")
	flag.StringVar(&cfg.Output, "output", cfg.Output, "Playback backend: oto, malgo or null")
	flag.IntVar(&cfg.Volume, "volume", cfg.Volume, "Initial volume 0-100")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flag.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if cfg.NoTUI {
		w = io.MultiWriter(os.Stdout, f)
	}
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true, TimeFormat: time.TimeOnly})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	logger.Info("Starting", "version", version.UserAgent(), "codec", cfg.Codec, "input", cfg.Input, "output", cfg.Output)

	srv, err := newAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}

	out, err := output.New(cfg.Output, logger)
	if err != nil {
		return err
	}

	clientCfg := seraphwave.Config{
		API:            srv,
		Code:           cfg.Code,
		UUID:           cfg.UUID,
		Format:         cfg.Format(),
		Output:         out,
		ConnectTimeout: cfg.ConnectTimeout,
		UserAgent:      version.UserAgent(),
		Logger:         logger,
	}
	if err := setInput(&clientCfg, cfg, logger); err != nil {
		return err
	}

	clientCfg.OnSession = func(s protocol.SessionInfo) {
		if cfg.NoTUI {
			logger.Info("Type /voice "+s.Code+" in game to join", "uuid", s.UUID)
		}
	}

	// tui is set before Connect starts any callback goroutine. Send blocks
	// until the program runs, so errors are delivered asynchronously.
	var tui *tea.Program
	clientCfg.OnError = func(err error) {
		if tui != nil {
			go tui.Send(ui.ErrorMsg{Err: err})
		}
	}

	client, err := seraphwave.New(clientCfg)
	if err != nil {
		return err
	}
	if !cfg.NoTUI {
		tui = ui.New(client)
	}
	client.SetVolume(cfg.Volume)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics.Register(reg, client)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("Metrics server stopped", "err", err)
			}
		}()
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer client.Close()

	if cfg.NoTUI {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		case <-client.Done():
			logger.Info("Connection ended", "err", client.Err())
		}
		return nil
	}

	go func() {
		select {
		case <-client.Done():
			tui.Send(ui.EndedMsg{Err: client.Err()})
		case <-ctx.Done():
			tui.Quit()
		}
	}()

	if _, err := tui.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// newAPI picks the metadata source the config names
func newAPI(ctx context.Context, cfg *config.Config, logger *log.Logger) (api.API, error) {
	switch {
	case cfg.Dummy:
		url := cfg.Gateway
		if url == "" {
			url = api.DefaultDummyWebSocketURL
		}
		logger.Info("Using dummy API", "gateway", url)
		return api.NewDummy(url), nil

	case cfg.Discover:
		logger.Info("Starting server discovery...")
		findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		server, err := discovery.First(findCtx, discovery.Config{Logger: logger})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, errors.New("no server found after 10 seconds")
			}
			return nil, err
		}
		return api.NewHTTPClient(server.URL(), api.HTTPConfig{UserAgent: version.UserAgent(), Logger: logger})

	default:
		return api.NewHTTPClient(cfg.MetaURL, api.HTTPConfig{UserAgent: version.UserAgent(), Logger: logger})
	}
}

// setInput configures the uplink source named by cfg.Input
func setInput(c *seraphwave.Config, cfg *config.Config, logger *log.Logger) error {
	in, err := config.ParseInput(cfg.Input)
	if err != nil {
		return err
	}

	switch in.Kind {
	case config.InputDevice:
		c.Input = &capture.Device{Logger: logger}
	case config.InputTone:
		c.Input = &capture.Tone{}
	case config.InputMP3:
		c.Input = &capture.MP3File{Path: in.Path, Loop: true, Logger: logger}
	case config.InputFLAC:
		c.Input = &capture.FLACFile{Path: in.Path, Loop: true, Logger: logger}
	case config.InputOgg:
		if cfg.Codec != audio.CodecOpus {
			return fmt.Errorf("input %q needs the opus codec", cfg.Input)
		}
		c.Frames = &capture.OggOpusFile{Path: in.Path}
	case config.InputNone:
	}
	return nil
}
