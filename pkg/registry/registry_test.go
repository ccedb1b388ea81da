// pkg/registry/registry_test.go
package registry

import (
	"testing"
	"testing/fstest"

	"competitor-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversEveryArtifactType(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, models.AllArtifactTypes(), reg.Types())
	for _, at := range models.AllArtifactTypes() {
		e := reg.MustLookup(at)
		assert.Equal(t, at, e.Type)
		assert.NotEmpty(t, e.SchemaVersion)
		assert.NotNil(t, e.Schema)
	}
}

func TestDefault_EvidenceBundleSchema(t *testing.T) {
	reg := MustDefault()

	ok := reg.Validate(models.ArtifactEvidenceBundle, map[string]interface{}{
		"evidence_char_cap": 12000,
		"competitors": []interface{}{
			map[string]interface{}{"competitor_id": "c1", "name": "Acme", "evidence_chars": 420, "truncated": false},
		},
	})
	assert.True(t, ok.OK, ok.Error)

	bad := reg.Validate(models.ArtifactEvidenceBundle, map[string]interface{}{"competitors": []interface{}{}})
	assert.False(t, bad.OK)
	assert.Contains(t, bad.Error, "evidence_char_cap")
}

const okSchema = `{"type":"object"}`

func fullManifest(extra string) string {
	return `{"version":"t","artifacts":[
		{"type":"snapshot","schemaVersion":"1","schemaFile":"s.json"},
		{"type":"synthesis","schemaVersion":"1","schemaFile":"s.json"},
		{"type":"opportunities","schemaVersion":"1","schemaFile":"s.json"},
		{"type":"jobs_to_be_done","schemaVersion":"1","schemaFile":"s.json"},
		{"type":"scoring_matrix","schemaVersion":"1","schemaFile":"s.json"},
		{"type":"strategic_bets","schemaVersion":"1","schemaFile":"s.json"}` + extra + `]}`
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		schema   string
		wantErr  string
	}{
		{
			name:     "missing type",
			manifest: fullManifest(""),
			schema:   okSchema,
			wantErr:  `"evidence_bundle" missing`,
		},
		{
			name:     "duplicate type",
			manifest: fullManifest(`,{"type":"evidence_bundle","schemaVersion":"1","schemaFile":"s.json"},{"type":"snapshot","schemaVersion":"1","schemaFile":"s.json"}`),
			schema:   okSchema,
			wantErr:  "registered twice",
		},
		{
			name:     "unknown type",
			manifest: fullManifest(`,{"type":"press_release","schemaVersion":"1","schemaFile":"s.json"}`),
			schema:   okSchema,
			wantErr:  "unknown artifact type",
		},
		{
			name:     "bad schema",
			manifest: fullManifest(`,{"type":"evidence_bundle","schemaVersion":"1","schemaFile":"s.json"}`),
			schema:   `{"type": 5}`,
			wantErr:  "compile schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"registry.json": {Data: []byte(tt.manifest)},
				"s.json":        {Data: []byte(tt.schema)},
			}
			_, err := Load(fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	reg := MustDefault()
	_, ok := reg.Lookup(models.ArtifactType("nope"))
	assert.False(t, ok)
	assert.Panics(t, func() { reg.MustLookup(models.ArtifactType("nope")) })
}
