// cmd/tools/intelctl/cmd_registry.go
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"competitor-intel/internal/models"
	"competitor-intel/pkg/registry"

	"github.com/spf13/cobra"
)

func newRegistryCmd(root *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate the artifact registry",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Registry directory holding registry.json and schemas/ (default embedded)")

	load := func() (*registry.Registry, error) {
		if dir == "" {
			return registry.Default()
		}
		return registry.Load(os.DirFS(dir))
	}

	cmd.AddCommand(newRegistryListCmd(load), newRegistryValidateCmd(root, load))
	return cmd
}

func newRegistryListCmd(load func() (*registry.Registry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artifact types with their schema versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "TYPE\tSCHEMA VERSION\tDESCRIPTION\n")
			for _, t := range reg.Types() {
				e := reg.MustLookup(t)
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Type, e.SchemaVersion, e.Description)
			}
			return w.Flush()
		},
	}
}

// newRegistryValidateCmd checks the registry itself, or with --file one
// artifact document against its type's schema.
func newRegistryValidateCmd(root *rootOptions, load func() (*registry.Registry, error)) *cobra.Command {
	var (
		artifactType string
		file         string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry, or an artifact document with --type and --file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return fmt.Errorf("registry invalid: %w", err)
			}
			if file == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "registry %s OK: %d artifact types\n", reg.Version(), len(reg.Types()))
				return nil
			}

			t, err := models.ParseArtifactType(artifactType)
			if err != nil {
				return err
			}
			var doc map[string]interface{}
			if err := readJSON(cmd, file, &doc); err != nil {
				return err
			}
			outcome := reg.Validate(t, doc)
			if err := root.writeJSON(cmd, outcome); err != nil {
				return err
			}
			if !outcome.OK {
				return fmt.Errorf("%s document does not match schema", t)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&artifactType, "type", "", "Artifact type of the document")
	f.StringVarP(&file, "file", "f", "", "Artifact document, - for stdin")
	cmd.MarkFlagsRequiredTogether("type", "file")
	return cmd
}
