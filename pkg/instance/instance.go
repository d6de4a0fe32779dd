package instance

import (
	"os"

	"github.com/angelmondragon/marketplace-core/pkg/env"
)

// GetID returns the process instance identifier used in boot logs.
// MARKET_INSTANCE_ID wins, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("MARKET_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
