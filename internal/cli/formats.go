package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/paleta/internal/bundle"
	"github.com/jmylchreest/paleta/internal/export"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported export formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := NewTable([]string{"Format", "File", "Content Type", "Description"})
			table.SetColumnMaxWidth(3, 40)
			for _, f := range export.Formats() {
				table.AddRow([]string{string(f), f.Filename(), f.ContentType(), f.Description()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, table.Render())

			fmt.Fprintln(out)
			fmt.Fprint(out, "Bundle archives:")
			for _, k := range bundle.Kinds() {
				fmt.Fprintf(out, " .%s", k)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
