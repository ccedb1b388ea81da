// internal/models/project.go
package models

import "time"

type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Market      string    `json:"market"`
	Product     string    `json:"product"`
	Constraints string    `json:"constraints,omitempty"`
	RiskPosture string    `json:"riskPosture,omitempty"`
	NotifyEmail string    `json:"notifyEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MissingFields lists required project fields that are empty.
func (p *Project) MissingFields() []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Market == "" {
		missing = append(missing, "market")
	}
	return missing
}

type Competitor struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId"`
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	EvidenceText string `json:"evidenceText,omitempty"`
}

// RunStatus is the last known state of a generation run for a project.
type RunStatus struct {
	RunID     string    `json:"runId"`
	ProjectID string    `json:"projectId"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Stage     string    `json:"stage,omitempty"`
}

const (
	RunStateRunning   = "running"
	RunStateSucceeded = "succeeded"
	RunStateFailed    = "failed"
)
