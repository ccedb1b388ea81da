// cmd/tools/intelctl/root.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"competitor-intel/internal/common/logger"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	logLevel string
	pretty   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "intelctl",
		Short: "Run evidence pipeline stages and registry checks offline",
		Long: "intelctl runs single evidence pipeline stages over JSON files and\n" +
			"validates the artifact registry without a database or network.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.BoolVar(&opts.pretty, "pretty", true, "Indent JSON output")

	cmd.AddCommand(
		newPlanCmd(opts),
		newCanonicalizeCmd(opts),
		newClassifyCmd(opts),
		newRankCmd(opts),
		newCoverageCmd(opts),
		newRegistryCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger() logger.Logger {
	return logger.NewStructured(o.logLevel, "console", "stderr")
}

// readJSON decodes path into dst; "-" reads stdin.
func readJSON(cmd *cobra.Command, path string, dst interface{}) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (o *rootOptions) writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
