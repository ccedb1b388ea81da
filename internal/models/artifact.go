// internal/models/artifact.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactType identifies a generation stage and the document it produces.
type ArtifactType string

const (
	ArtifactSnapshot       ArtifactType = "snapshot"
	ArtifactSynthesis      ArtifactType = "synthesis"
	ArtifactOpportunities  ArtifactType = "opportunities"
	ArtifactJobsToBeDone   ArtifactType = "jobs_to_be_done"
	ArtifactScoringMatrix  ArtifactType = "scoring_matrix"
	ArtifactStrategicBets  ArtifactType = "strategic_bets"
	ArtifactEvidenceBundle ArtifactType = "evidence_bundle"
)

// AllArtifactTypes returns every artifact type in pipeline order.
func AllArtifactTypes() []ArtifactType {
	return []ArtifactType{
		ArtifactSnapshot,
		ArtifactSynthesis,
		ArtifactOpportunities,
		ArtifactJobsToBeDone,
		ArtifactScoringMatrix,
		ArtifactStrategicBets,
		ArtifactEvidenceBundle,
	}
}

// ExtendedStages are the optional stages that run after synthesis.
func ExtendedStages() []ArtifactType {
	return []ArtifactType{
		ArtifactOpportunities,
		ArtifactJobsToBeDone,
		ArtifactScoringMatrix,
		ArtifactStrategicBets,
	}
}

func (t ArtifactType) Valid() bool {
	switch t {
	case ArtifactSnapshot, ArtifactSynthesis, ArtifactOpportunities, ArtifactJobsToBeDone,
		ArtifactScoringMatrix, ArtifactStrategicBets, ArtifactEvidenceBundle:
		return true
	default:
		return false
	}
}

// Generated reports whether the artifact comes from a model call.
func (t ArtifactType) Generated() bool {
	switch t {
	case ArtifactSnapshot, ArtifactSynthesis, ArtifactOpportunities, ArtifactJobsToBeDone,
		ArtifactScoringMatrix, ArtifactStrategicBets:
		return true
	case ArtifactEvidenceBundle:
		return false
	default:
		panic(fmt.Sprintf("unhandled artifact type %q", string(t)))
	}
}

// ValidationStage is the failure stage reported when this step's output
// cannot be validated.
func (t ArtifactType) ValidationStage() string {
	switch t {
	case ArtifactSnapshot:
		return "snapshot_validation"
	case ArtifactSynthesis:
		return "synthesis_validation"
	case ArtifactOpportunities, ArtifactJobsToBeDone, ArtifactScoringMatrix,
		ArtifactStrategicBets, ArtifactEvidenceBundle:
		return string(t) + "_validation"
	default:
		panic(fmt.Sprintf("unhandled artifact type %q", string(t)))
	}
}

func ParseArtifactType(s string) (ArtifactType, error) {
	t := ArtifactType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown artifact type %q", s)
	}
	return t, nil
}

// Usage is token accounting for one or more generator calls.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

type ArtifactMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Usage       *Usage    `json:"usage,omitempty"`
}

// Artifact is a persisted, schema-validated document. Regeneration creates
// a new artifact; existing rows are never updated.
type Artifact struct {
	ID            string                 `json:"id"`
	ProjectID     string                 `json:"projectId"`
	RunID         string                 `json:"runId"`
	Type          ArtifactType           `json:"type"`
	SchemaVersion string                 `json:"schema_version"`
	CompetitorID  string                 `json:"competitorId,omitempty"`
	Meta          ArtifactMeta           `json:"meta"`
	Content       map[string]interface{} `json:"content"`
	CreatedAt     time.Time              `json:"createdAt"`
}
