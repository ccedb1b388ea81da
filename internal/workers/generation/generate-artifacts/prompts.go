// internal/workers/generation/generate-artifacts/prompts.go
package generateartifacts

import (
	"encoding/json"
	"fmt"
	"strings"

	"competitor-intel/internal/common/llm"
	"competitor-intel/internal/models"
)

const systemPrompt = "You are a competitive-intelligence analyst. Respond with exactly one JSON object that satisfies the JSON schema you are given. " +
	"Use only the supplied evidence and project context. When the evidence does not support a field, say so in that field instead of guessing."

func projectContext(p *models.Project) []string {
	parts := []string{
		"Project context:",
		fmt.Sprintf("- Project: %s", p.Name),
		fmt.Sprintf("- Market: %s", p.Market),
	}
	if p.Product != "" {
		parts = append(parts, fmt.Sprintf("- Our product: %s", p.Product))
	}
	if p.Constraints != "" {
		parts = append(parts, fmt.Sprintf("- Constraints: %s", p.Constraints))
	}
	if p.RiskPosture != "" {
		parts = append(parts, fmt.Sprintf("- Risk posture: %s", p.RiskPosture))
	}
	return parts
}

func schemaBlock(schema string) []string {
	return []string{"\nJSON schema:", schema}
}

func snapshotMessages(p *models.Project, cc *competitorContext, schema string) []llm.Message {
	parts := projectContext(p)

	parts = append(parts, "\nCompetitor:")
	parts = append(parts, fmt.Sprintf("- Name: %s", cc.competitor.Name))
	if cc.competitor.URL != "" {
		parts = append(parts, fmt.Sprintf("- Website: %s", cc.competitor.URL))
	}

	parts = append(parts, "\nEvidence:")
	if strings.TrimSpace(cc.evidence) == "" {
		parts = append(parts, "(no evidence collected)")
	} else {
		parts = append(parts, cc.evidence)
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Write a snapshot of this competitor: positioning, target customers, pricing, strengths, weaknesses and recent moves")
	parts = append(parts, "- Every citation must use a URL that appears in the evidence")
	parts = append(parts, "- Mark claims that rest on third-party sources with lower confidence")
	parts = append(parts, schemaBlock(schema)...)

	return buildMessages(parts)
}

// namedDocument pairs a generated document with the competitor it covers.
type namedDocument struct {
	Competitor string                 `json:"competitor"`
	Snapshot   map[string]interface{} `json:"snapshot"`
}

func synthesisMessages(p *models.Project, snapshots []namedDocument, schema string) []llm.Message {
	parts := projectContext(p)

	parts = append(parts, "\nCompetitor snapshots:")
	parts = append(parts, mustJSON(snapshots))

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Synthesize the market across all competitors")
	parts = append(parts, "- Name recurring themes, white space nobody serves well, and what differentiates each competitor")
	parts = append(parts, "- Include every competitor in the comparison")
	parts = append(parts, schemaBlock(schema)...)

	return buildMessages(parts)
}

// priorStage is an extended stage output already produced in this run.
type priorStage struct {
	Stage   models.ArtifactType
	Content map[string]interface{}
}

func stageMessages(p *models.Project, stage models.ArtifactType, synthesis map[string]interface{}, prior []priorStage, schema string) []llm.Message {
	parts := projectContext(p)

	parts = append(parts, "\nMarket synthesis:")
	parts = append(parts, mustJSON(synthesis))

	for _, ps := range prior {
		parts = append(parts, fmt.Sprintf("\nEarlier output (%s):", ps.Stage))
		parts = append(parts, mustJSON(ps.Content))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, stageInstructions(stage)...)
	parts = append(parts, schemaBlock(schema)...)

	return buildMessages(parts)
}

func stageInstructions(stage models.ArtifactType) []string {
	switch stage {
	case models.ArtifactOpportunities:
		return []string{
			"- List the opportunities this project should pursue, highest impact first",
			"- Rate impact and effort as high, medium or low",
		}
	case models.ArtifactJobsToBeDone:
		return []string{
			"- Describe the jobs customers hire products in this market to do",
			"- For each job name the segment and the competitors that serve it poorly",
		}
	case models.ArtifactScoringMatrix:
		return []string{
			"- Choose weighted criteria that matter to buyers; weights between 0 and 1",
			"- Score every competitor from 0 to 10 on each criterion",
		}
	case models.ArtifactStrategicBets:
		return []string{
			"- Propose strategic bets consistent with the risk posture",
			"- Give each bet a hypothesis, success metrics and kill criteria",
		}
	case models.ArtifactSnapshot, models.ArtifactSynthesis, models.ArtifactEvidenceBundle:
		panic(fmt.Sprintf("%q is not an extended stage", stage))
	default:
		panic(fmt.Sprintf("unhandled artifact type %q", string(stage)))
	}
}

func repairMessages(raw, schema, validationError string) []llm.Message {
	parts := []string{
		"Your previous response did not satisfy the JSON schema.",
		"\nPrevious response:",
		raw,
		"\nValidation errors:",
		validationError,
		"\nReturn a corrected JSON object only. Keep every supported fact from the previous response.",
	}
	parts = append(parts, schemaBlock(schema)...)
	return buildMessages(parts)
}

func buildMessages(parts []string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: strings.Join(parts, "\n")},
	}
}

func mustJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal prompt context: %v", err))
	}
	return string(data)
}
