// pkg/registry/schema.go
package registry

import (
	"competitor-intel/internal/common/validation"
	"competitor-intel/internal/models"
)

// Manifest is the on-disk shape of registry.json.
type Manifest struct {
	Version   string          `json:"version"`
	Artifacts []ManifestEntry `json:"artifacts"`
}

type ManifestEntry struct {
	Type          string `json:"type"`
	SchemaVersion string `json:"schemaVersion"`
	Description   string `json:"description"`
	SchemaFile    string `json:"schemaFile"`
}

// Entry is one validated artifact type with its compiled schema.
type Entry struct {
	Type          models.ArtifactType
	SchemaVersion string
	Description   string
	Schema        *validation.Schema
}
