// pkg/registry/registry.go
package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"competitor-intel/internal/common/validation"
	"competitor-intel/internal/models"
)

//go:embed registry.json schemas/*.json
var embedded embed.FS

// Registry is the read-only table of artifact types. Build it with Load and
// never mutate it afterwards.
type Registry struct {
	version string
	entries map[models.ArtifactType]Entry
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded manifest. It is
// loaded and validated on first use.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(embedded)
	})
	return defaultReg, defaultErr
}

// MustDefault panics if the embedded registry is invalid. Call it during
// startup only.
func MustDefault() *Registry {
	reg, err := Default()
	if err != nil {
		panic(fmt.Sprintf("artifact registry: %v", err))
	}
	return reg
}

// Load reads registry.json from fsys and checks that every artifact type
// appears exactly once with a compiling schema.
func Load(fsys fs.FS) (*Registry, error) {
	data, err := fs.ReadFile(fsys, "registry.json")
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	reg := &Registry{
		version: manifest.Version,
		entries: make(map[models.ArtifactType]Entry, len(manifest.Artifacts)),
	}

	for _, me := range manifest.Artifacts {
		t, err := models.ParseArtifactType(me.Type)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.entries[t]; dup {
			return nil, fmt.Errorf("artifact type %q registered twice", t)
		}
		if me.SchemaVersion == "" {
			return nil, fmt.Errorf("artifact type %q has no schema version", t)
		}

		src, err := fs.ReadFile(fsys, me.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("artifact type %q: %w", t, err)
		}
		schema, err := validation.CompileSchema(string(src))
		if err != nil {
			return nil, fmt.Errorf("artifact type %q: %w", t, err)
		}

		reg.entries[t] = Entry{
			Type:          t,
			SchemaVersion: me.SchemaVersion,
			Description:   me.Description,
			Schema:        schema,
		}
	}

	for _, t := range models.AllArtifactTypes() {
		if _, ok := reg.entries[t]; !ok {
			return nil, fmt.Errorf("artifact type %q missing from registry", t)
		}
	}

	return reg, nil
}

func (r *Registry) Version() string {
	return r.version
}

func (r *Registry) Lookup(t models.ArtifactType) (Entry, bool) {
	e, ok := r.entries[t]
	return e, ok
}

// MustLookup is for types the registry is known to contain after Load.
func (r *Registry) MustLookup(t models.ArtifactType) Entry {
	e, ok := r.entries[t]
	if !ok {
		panic(fmt.Sprintf("artifact type %q not registered", t))
	}
	return e
}

// Types lists registered types in pipeline order.
func (r *Registry) Types() []models.ArtifactType {
	out := make([]models.ArtifactType, 0, len(r.entries))
	for _, t := range models.AllArtifactTypes() {
		if _, ok := r.entries[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks an already built document against the schema of t.
func (r *Registry) Validate(t models.ArtifactType, content map[string]interface{}) validation.Outcome {
	return validation.ValidateObject(content, r.MustLookup(t).Schema)
}
