package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roi-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived evaluations to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		output, _ := cmd.Flags().GetString("output")

		st, err := openArchive(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		evals, err := st.ListEvaluations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := export.Save(output, evals); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d evaluations to %s\n", len(evals), output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "evaluations.xlsx", "output XLSX path")
	addFilterFlags(exportCmd, 1000)
	rootCmd.AddCommand(exportCmd)
}
