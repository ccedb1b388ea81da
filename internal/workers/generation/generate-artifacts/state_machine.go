// internal/workers/generation/generate-artifacts/state_machine.go
package generateartifacts

import (
	"context"
	"time"

	"competitor-intel/internal/common/errors"
	"competitor-intel/internal/common/llm"
	"competitor-intel/internal/common/metrics"
	"competitor-intel/internal/common/observability"
	"competitor-intel/internal/common/validation"
	"competitor-intel/internal/models"
)

// stepState is a state of the per-step generation machine:
//
//	PREPARE -> CALL -> VALIDATE -> DONE
//	                      |
//	                      +-> REPAIR -> VALIDATE -> DONE | FAILED
type stepState int

const (
	statePrepare stepState = iota
	stateCall
	stateValidate
	stateRepair
	stateDone
	stateFailed
)

func (s stepState) String() string {
	switch s {
	case statePrepare:
		return "PREPARE"
	case stateCall:
		return "CALL"
	case stateValidate:
		return "VALIDATE"
	case stateRepair:
		return "REPAIR"
	case stateDone:
		return "DONE"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

const (
	phaseInitial = "initial"
	phaseRepair  = "repair"
)

// step is one generation step. prepare builds the initial messages from the
// schema source; everything else is shared by every artifact type.
type step struct {
	artifact     models.ArtifactType
	competitorID string
	prepare      func(schema string) []llm.Message
}

type stepResult struct {
	Content  map[string]interface{}
	Provider string
	Model    string
	Usage    models.Usage
	Calls    int
	Repaired bool
}

// runStep drives one step through the state machine. It makes at most two
// generator calls: the initial call and a single repair.
func (h *Handler) runStep(ctx context.Context, r *run, st step) (res *stepResult, err error) {
	entry := h.registry.MustLookup(st.artifact)

	ctx, span := h.obs.StartSpan(ctx, "generation.step", map[string]string{
		"runId":        r.id,
		"stage":        string(st.artifact),
		"competitorId": st.competitorID,
	})
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(string(st.artifact)).Observe(time.Since(start).Seconds())
		observability.EndSpan(span, err)
	}()

	res = &stepResult{}
	state := statePrepare
	var (
		messages []llm.Message
		raw      string
		outcome  validation.Outcome
	)

	for {
		switch state {
		case statePrepare:
			messages = st.prepare(entry.Schema.Source)
			state = stateCall

		case stateCall:
			raw, err = h.call(ctx, r, st, res, messages, phaseInitial)
			if err != nil {
				return nil, err
			}
			state = stateValidate

		case stateValidate:
			outcome = validation.ValidateDocument(raw, entry.Schema)
			switch {
			case outcome.OK:
				state = stateDone
			case res.Repaired:
				state = stateFailed
			default:
				state = stateRepair
			}

		case stateRepair:
			res.Repaired = true
			summary, _ := validation.Truncate(outcome.Error, h.config.ValidationErrorCap)
			metrics.GenerationRepairs.WithLabelValues(string(st.artifact)).Inc()
			r.logger.Warn("generated output failed validation, repairing", map[string]interface{}{
				"stage":           string(st.artifact),
				"competitorId":    st.competitorID,
				"validationError": summary,
			})

			messages = repairMessages(raw, entry.Schema.Source, summary)
			raw, err = h.call(ctx, r, st, res, messages, phaseRepair)
			if err != nil {
				return nil, err
			}
			state = stateValidate

		case stateDone:
			res.Content = outcome.Data
			r.logger.Debug("generation step completed", map[string]interface{}{
				"stage":        string(st.artifact),
				"competitorId": st.competitorID,
				"repaired":     res.Repaired,
				"calls":        res.Calls,
			})
			return res, nil

		case stateFailed:
			summary, _ := validation.Truncate(outcome.Error, h.config.ValidationErrorCap)
			return nil, errors.NewGenerationValidationError(st.artifact.ValidationStage(), st.competitorID, summary)

		default:
			return nil, errors.NewUnexpectedError(errors.New("generation step entered state " + state.String()))
		}
	}
}

// call issues one generator request and records usage on both the step and
// the run. Transport errors are not retried.
func (h *Handler) call(ctx context.Context, r *run, st step, res *stepResult, messages []llm.Message, phase string) (string, error) {
	metrics.GenerationCalls.WithLabelValues(string(st.artifact), phase).Inc()

	if h.config.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.StepTimeout)
		defer cancel()
	}

	resp, err := h.generator.Generate(ctx, llm.Request{
		Messages:    messages,
		JSONMode:    true,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, llm.ErrGeneratorTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return "", errors.NewGeneratorTimeoutError().WithMeta(errors.MetaStage, string(st.artifact))
		}
		return "", errors.NewUnexpectedError(err).WithMeta(errors.MetaStage, string(st.artifact))
	}

	res.Calls++
	res.Provider = resp.Provider
	res.Model = resp.Model
	r.usage.Add(resp.Usage)
	if resp.Usage != nil {
		res.Usage = res.Usage.Add(*resp.Usage)
		metrics.GenerationTokens.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
		metrics.GenerationTokens.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
	}
	return resp.Text, nil
}
