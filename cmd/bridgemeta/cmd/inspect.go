package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// inspectCmd summarizes a merged record set.
var inspectCmd = &cobra.Command{
	Use:   "inspect file.yaml",
	Short: "Summarize a merged record set",
	Long: `Inspect a merged record set: the framework name, the architectures it
covers and the entity count per section.

Examples:
  bridgemeta inspect Foundation.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		fw, err := metadata.LoadFramework(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "framework: %s\n", fw.Name)
		archs := make([]string, len(fw.Archs))
		for i, a := range fw.Archs {
			archs[i] = string(a)
		}
		fmt.Fprintf(os.Stdout, "archs: %v\n", archs)
		if len(fw.SDKs) > 0 {
			fmt.Fprintf(os.Stdout, "sdks: %v\n", fw.SDKs)
		}

		counts := sectionCounts(&fw.Definitions)
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "%s: %d\n", name, counts[name])
		}
		return nil
	},
}

func sectionCounts(d *metadata.Definitions) map[string]int {
	counts := map[string]int{}
	add := func(name string, n int) {
		if n > 0 {
			counts[name] = n
		}
	}
	add("aliases", len(d.Aliases))
	add("enum_type", len(d.EnumTypes))
	add("enum", len(d.Enum))
	add("externs", len(d.Externs))
	add("cftypes", len(d.CFTypes))
	add("literals", len(d.Literals))
	add("structs", len(d.Structs))
	add("expressions", len(d.Expressions))
	add("func_macros", len(d.FuncMacros))
	add("functions", len(d.Functions))
	add("classes", len(d.Classes))
	add("formal_protocols", len(d.FormalProtocols))
	add("informal_protocols", len(d.InformalProtocols))
	return counts
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
