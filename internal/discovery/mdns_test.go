// ABOUTME: Tests for mDNS discovery
// ABOUTME: Covers service entry conversion and API URL construction
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
)

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  ServerInfo
		ok    bool
	}{
		{
			name: "ipv4 with path",
			entry: &mdns.ServiceEntry{
				Name:       "mc._seraphwave._tcp.local.",
				AddrV4:     net.IPv4(192, 168, 2, 20),
				Port:       8080,
				InfoFields: []string{"path=/voice"},
			},
			want: ServerInfo{Name: "mc._seraphwave._tcp.local.", Host: "192.168.2.20", Port: 8080, Path: "/voice"},
			ok:   true,
		},
		{
			name:  "host name only",
			entry: &mdns.ServiceEntry{Name: "n", Host: "box.local.", Port: 80},
			want:  ServerInfo{Name: "n", Host: "box.local", Port: 80, Path: "/"},
			ok:    true,
		},
		{name: "no port", entry: &mdns.ServiceEntry{Name: "n", AddrV4: net.IPv4(10, 0, 0, 1)}},
		{name: "no address", entry: &mdns.ServiceEntry{Name: "n", Port: 80}},
		{name: "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fromEntry(tt.entry)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		server ServerInfo
		want   string
	}{
		{ServerInfo{Host: "192.168.2.20", Port: 8080}, "http://192.168.2.20:8080/"},
		{ServerInfo{Host: "box.local", Port: 80, Path: "/voice"}, "http://box.local:80/voice/"},
		{ServerInfo{Host: "fe80::1", Port: 9000, Path: "/"}, "http://[fe80::1]:9000/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.server.URL())
	}
}
