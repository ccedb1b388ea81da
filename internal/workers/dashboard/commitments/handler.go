// internal/workers/dashboard/commitments/handler.go
package commitments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"competitor-intel/internal/common/logger"
)

const (
	TaskType = "commitments"

	maxNoteLength = 2000
)

type PutInput struct {
	Committed bool   `json:"committed"`
	Note      string `json:"note,omitempty"`
}

type Handler struct {
	store  Store
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(store Store, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// List returns every commitment recorded for a project.
func (h *Handler) List(ctx context.Context, projectID string) ([]Entry, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidKey)
	}
	return h.store.ListByPrefix(ctx, projectID+":")
}

// Put records a commitment. The key must belong to projectID.
func (h *Handler) Put(ctx context.Context, projectID, key string, input PutInput) (*Entry, error) {
	keyProject, _, _, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	if keyProject != projectID {
		return nil, fmt.Errorf("%w: key %q does not belong to project %s", ErrInvalidKey, key, projectID)
	}
	note := strings.TrimSpace(input.Note)
	if len(note) > maxNoteLength {
		return nil, fmt.Errorf("%w: note exceeds %d bytes", ErrInvalidKey, maxNoteLength)
	}

	c := Commitment{
		Committed: input.Committed,
		Note:      note,
		UpdatedAt: h.now().UTC(),
	}
	if err := h.store.Set(ctx, key, c); err != nil {
		return nil, err
	}

	h.logger.Debug("commitment recorded", map[string]interface{}{
		"projectId": projectID,
		"key":       key,
		"committed": c.Committed,
	})
	return &Entry{Key: key, Commitment: c}, nil
}
