// Package setting defines the runtime key/value store contract. Remote
// credentials and sync checkpoints are configured at runtime, not
// through the environment, so they live in the database.
package setting

import "context"

// Keys used by the sync engine.
const (
	KeyRemoteURL    = "openwebui_url"
	KeyRemoteAPIKey = "openwebui_api_key"
	KeyLastSync     = "last_openwebui_sync"
)

// Store reads and writes runtime settings.
type Store interface {
	// Get returns the value for key, or "" with found=false when unset.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set upserts the value for key.
	Set(ctx context.Context, key, value string) error
}
