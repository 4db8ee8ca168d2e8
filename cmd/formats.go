package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"convertey/converter"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported conversions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := converter.NewRegistry()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE TYPE\tTARGETS")
		for _, source := range registry.SourceTypes() {
			fmt.Fprintf(w, "%s\t%s\n", source, strings.Join(registry.AllowedTargets(source), ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FORMAT\tMIME TYPE")
		for _, token := range registry.Formats() {
			mt, _ := registry.CanonicalMediaType(token)
			fmt.Fprintf(w, "%s\t%s\n", token, mt)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
