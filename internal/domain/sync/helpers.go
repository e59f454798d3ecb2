package sync

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// errNotConfigured is returned when remote credentials are missing from
// the settings store.
var errNotConfigured = errors.New("OpenWebUI URL and API key must be configured in settings")

// IsNotConfigured reports whether err is the missing-credentials error.
func IsNotConfigured(err error) bool {
	return errors.Is(err, errNotConfigured)
}

func newPublicID() string {
	return uuid.NewString()
}

func progressFormat(processed int, result *Result) string {
	return fmt.Sprintf("Processed %d chats (%d new, %d updated, %d unchanged)",
		processed, result.Imported, result.Updated, result.Skipped)
}
