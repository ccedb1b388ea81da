// cmd/tools/intelctl/cmd_pipeline.go
package main

import (
	"competitor-intel/internal/models"
	analyzecoverage "competitor-intel/internal/workers/evidence/analyze-coverage"
	canonicalizededupe "competitor-intel/internal/workers/evidence/canonicalize-dedupe"
	classifyevidence "competitor-intel/internal/workers/evidence/classify-evidence"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"
	rankclaims "competitor-intel/internal/workers/evidence/rank-claims"

	"github.com/spf13/cobra"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	var in planqueries.Input
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the search queries planned for one competitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := planqueries.NewHandler(planqueries.LoadConfig(), root.logger()).Execute(cmd.Context(), &in)
			if err != nil {
				return err
			}
			return root.writeJSON(cmd, out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.CompanyName, "name", "", "Competitor name (required)")
	f.StringVar(&in.URL, "url", "", "Competitor site URL")
	f.StringSliceVar(&in.IncludeTypes, "types", nil, "Evidence types to plan (default all)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCanonicalizeCmd(root *rootOptions) *cobra.Command {
	var (
		file         string
		competitorID string
	)
	cmd := &cobra.Command{
		Use:   "canonicalize",
		Short: "Canonicalize and de-duplicate a JSON array of tagged hits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var hits []models.TaggedHit
			if err := readJSON(cmd, file, &hits); err != nil {
				return err
			}
			out, err := canonicalizededupe.NewHandler(canonicalizededupe.LoadConfig(), root.logger()).
				Execute(cmd.Context(), &canonicalizededupe.Input{Hits: hits, CompetitorID: competitorID})
			if err != nil {
				return err
			}
			return root.writeJSON(cmd, out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "-", "Input file, - for stdin")
	f.StringVar(&competitorID, "competitor", "", "Competitor id stamped on every item")
	return cmd
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign an evidence type to a JSON array of items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []models.EvidenceItem
			if err := readJSON(cmd, file, &items); err != nil {
				return err
			}
			h, err := classifyevidence.NewHandler(classifyevidence.LoadConfig(), root.logger())
			if err != nil {
				return err
			}
			out, err := h.Execute(cmd.Context(), &classifyevidence.Input{Items: items})
			if err != nil {
				return err
			}
			return root.writeJSON(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Input file, - for stdin")
	return cmd
}

func newRankCmd(root *rootOptions) *cobra.Command {
	var (
		file       string
		firstParty []string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score and order a JSON array of classified items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []models.EvidenceItem
			if err := readJSON(cmd, file, &items); err != nil {
				return err
			}
			out, err := rankclaims.NewHandler(rankclaims.LoadConfig(), root.logger()).
				Execute(cmd.Context(), &rankclaims.Input{Items: items, FirstPartyDomains: firstParty})
			if err != nil {
				return err
			}
			return root.writeJSON(cmd, out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "-", "Input file, - for stdin")
	f.StringSliceVar(&firstParty, "first-party", nil, "Domains owned by the competitor")
	return cmd
}

func newCoverageCmd(root *rootOptions) *cobra.Command {
	var (
		file string
		mvc  models.MVCThresholds
	)
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Report evidence coverage for a JSON array of competitors with items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var competitors []analyzecoverage.CompetitorEvidence
			if err := readJSON(cmd, file, &competitors); err != nil {
				return err
			}
			out, err := analyzecoverage.NewHandler(analyzecoverage.LoadConfig(), root.logger()).
				Execute(cmd.Context(), &analyzecoverage.Input{Competitors: competitors, MVC: &mvc})
			if err != nil {
				return err
			}
			return root.writeJSON(cmd, out.Report)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "-", "Input file, - for stdin")
	f.IntVar(&mvc.MinCompetitorsWithEvidence, "min-competitors", 2, "Competitors with evidence required for Medium confidence")
	f.IntVar(&mvc.MinTypesCovered, "min-types", 3, "Evidence types required for Medium confidence")
	return cmd
}
