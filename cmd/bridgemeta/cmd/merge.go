package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgemeta/bridgemeta"
	"github.com/bridgemeta/bridgemeta/pkg/logging"
)

var (
	mergeFramework  string
	mergeExceptions string
	mergeOutput     string
	mergeHeader     string
)

// mergeCmd merges scan files into a canonical record set.
var mergeCmd = &cobra.Command{
	Use:   "merge [flags] scan.yaml...",
	Short: "Merge per-architecture scans",
	Long: `Merge one scan file per architecture and SDK combination into a single
canonical record set.

Unresolved problems are printed one per line with enough detail to
author a targeted exception, and the merged output is not written.

Examples:
  bridgemeta merge -f Foundation scans/i386.yaml scans/x86_64.yaml
  bridgemeta merge -f Foundation -e Foundation.exceptions.yaml -o Foundation.yaml scans/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		opts := []bridgemeta.Option{
			bridgemeta.WithLogger(logging.Default()),
		}
		if mergeExceptions != "" {
			opts = append(opts, bridgemeta.WithExceptionsFile(mergeExceptions))
		}
		if mergeOutput != "" {
			opts = append(opts, bridgemeta.WithOutput(mergeOutput))
			opts = append(opts, bridgemeta.WithHeader(mergeHeader))
		}

		bm, err := bridgemeta.New(opts...)
		if err != nil {
			return err
		}

		result, err := bm.MergeFiles(mergeFramework, args...)
		if result == nil {
			return err
		}
		if !result.OK() {
			result.Report(os.Stderr)
			return fmt.Errorf("merge failed for %s", mergeFramework)
		}

		if mergeOutput != "" {
			logging.Info().
				Str("framework", mergeFramework).
				Str("path", mergeOutput).
				Msg("Wrote merged record set")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeFramework, "framework", "f", "", "framework name (required)")
	mergeCmd.Flags().StringVarP(&mergeExceptions, "exceptions", "e", "", "exception file to overlay")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "path for the merged record set")
	mergeCmd.Flags().StringVar(&mergeHeader, "header", "", "comment header for the output file")
	_ = mergeCmd.MarkFlagRequired("framework")
}
