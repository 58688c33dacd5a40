// ABOUTME: Mints a join code and prints the server metadata
// ABOUTME: Useful for checking a metadata server without opening audio devices
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seraphwave/seraphwave-go/internal/discovery"
	"github.com/seraphwave/seraphwave-go/internal/version"
	"github.com/seraphwave/seraphwave-go/pkg/api"
)

var (
	metaURL  = flag.String("meta-url", "", "Metadata server base URL (default: discover with mDNS)")
	dummy    = flag.Bool("dummy", false, "Use the offline dummy API")
	timeout  = flag.Duration("timeout", 10*time.Second, "Overall timeout")
	metaOnly = flag.Bool("meta-only", false, "Print the metadata without minting a code")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "seraphwave-code"})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	srv, err := newAPI(ctx, logger)
	if err != nil {
		logger.Fatal("No metadata server", "err", err)
	}

	meta, err := srv.Meta(ctx)
	if err != nil {
		logger.Fatal("Failed to fetch meta", "err", err)
	}

	out := struct {
		Code string   `json:"code,omitempty"`
		Meta api.Meta `json:"meta"`
	}{Meta: meta}

	if !*metaOnly {
		out.Code, err = srv.CreateCode(ctx)
		if err != nil {
			logger.Fatal("Failed to create code", "err", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("Failed to write output", "err", err)
	}
	if out.Code != "" {
		fmt.Fprintf(os.Stderr, "Type /voice %s in game to join\n", out.Code)
	}
}

func newAPI(ctx context.Context, logger *log.Logger) (api.API, error) {
	cfg := api.HTTPConfig{UserAgent: version.UserAgent(), Logger: logger}

	switch {
	case *dummy:
		return api.NewDummy(api.DefaultDummyWebSocketURL), nil
	case *metaURL != "":
		return api.NewHTTPClient(*metaURL, cfg)
	default:
		server, err := discovery.First(ctx, discovery.Config{Logger: logger})
		if err != nil {
			return nil, err
		}
		return api.NewHTTPClient(server.URL(), cfg)
	}
}
