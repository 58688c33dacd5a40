// ABOUTME: mDNS discovery of seraphwave metadata servers
// ABOUTME: Browses _seraphwave._tcp and turns answers into API base URLs
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service metadata servers advertise
const ServiceType = "_seraphwave._tcp"

// DefaultTimeout bounds one browse round
const DefaultTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	Service string        // defaults to ServiceType
	Domain  string        // defaults to "local"
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *log.Logger
}

// ServerInfo describes a discovered metadata server
type ServerInfo struct {
	Name string
	Host string
	Port int
	// Path is the API root from the "path=" TXT record, "/" when absent
	Path string
}

// URL returns the API base URL of the server
func (s ServerInfo) URL() string {
	path := s.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return "http://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) + path
}

// Browse runs one mDNS query and returns every server that answered. The
// query lasts cfg.Timeout or until ctx's deadline, whichever is sooner.
func Browse(ctx context.Context, cfg Config) ([]ServerInfo, error) {
	if cfg.Service == "" {
		cfg.Service = ServiceType
	}
	if cfg.Domain == "" {
		cfg.Domain = "local"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("discovery")

	entries := make(chan *mdns.ServiceEntry, 10)
	collected := make(chan []ServerInfo, 1)

	go func() {
		var servers []ServerInfo
		for entry := range entries {
			server, ok := fromEntry(entry)
			if !ok {
				continue
			}
			logger.Info("Discovered server", "name", server.Name, "url", server.URL())
			servers = append(servers, server)
		}
		collected <- servers
	}()

	params := mdns.DefaultParams(cfg.Service)
	params.Domain = cfg.Domain
	params.Timeout = cfg.Timeout
	params.Entries = entries
	params.DisableIPv6 = true

	// Query blocks for the full timeout; a shorter ctx deadline wins
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < params.Timeout {
			params.Timeout = max(left, time.Millisecond)
		}
	}

	err := mdns.Query(params)
	close(entries)
	servers := <-collected

	if err != nil {
		return servers, fmt.Errorf("mdns query failed: %w", err)
	}
	return servers, nil
}

// First browses until a server answers or ctx ends
func First(ctx context.Context, cfg Config) (ServerInfo, error) {
	for {
		servers, err := Browse(ctx, cfg)
		if err != nil {
			return ServerInfo{}, err
		}
		if len(servers) > 0 {
			return servers[0], nil
		}
		if ctx.Err() != nil {
			return ServerInfo{}, fmt.Errorf("no %s server found: %w", ServiceType, ctx.Err())
		}
	}
}

func fromEntry(entry *mdns.ServiceEntry) (ServerInfo, bool) {
	if entry == nil || entry.Port == 0 {
		return ServerInfo{}, false
	}

	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	case entry.Host != "":
		host = strings.TrimSuffix(entry.Host, ".")
	default:
		return ServerInfo{}, false
	}

	server := ServerInfo{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
		Path: "/",
	}
	for _, field := range entry.InfoFields {
		if p, ok := strings.CutPrefix(field, "path="); ok && p != "" {
			server.Path = p
		}
	}
	return server, true
}
