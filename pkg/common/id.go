package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a unique ID with the given prefix.
// Format: prefix-timestamp-random
func GenerateID(prefix string) string {
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, timestamp, random)
}

// GenerateSessionID generates a unique session ID.
func GenerateSessionID() string {
	return GenerateID("sess")
}

// GenerateRegistrationID generates a unique service worker registration ID.
func GenerateRegistrationID() string {
	return GenerateID("sw")
}
