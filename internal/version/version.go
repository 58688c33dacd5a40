// ABOUTME: Build identification for the seraphwave client
// ABOUTME: Version is overridden at link time with -ldflags "-X"
package version

// Version is the client release
var Version = "0.1.0"

const (
	Product      = "Seraphwave Voice"
	Manufacturer = "Seraphwave"
)

// UserAgent identifies the client to the metadata server and gateway
func UserAgent() string {
	return Product + "/" + Version
}
