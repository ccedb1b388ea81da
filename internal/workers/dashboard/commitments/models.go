// internal/workers/dashboard/commitments/models.go
package commitments

import (
	"fmt"
	"strings"
	"time"
)

// Commitment records whether the team committed to one item of an artifact,
// for example a single opportunity or strategic bet.
type Commitment struct {
	Committed bool      `json:"committed"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Entry is a commitment with its composite key.
type Entry struct {
	Key        string     `json:"key"`
	Commitment Commitment `json:"commitment"`
}

// Key builds the composite id <projectId>:<artifactId>:<itemPath>. The item
// path may itself contain colons.
func Key(projectID, artifactID, itemPath string) string {
	return projectID + ":" + artifactID + ":" + itemPath
}

// ParseKey splits a composite id into its parts.
func ParseKey(key string) (projectID, artifactID, itemPath string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return parts[0], parts[1], parts[2], nil
}
