package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute annual benefit, cost, payback and recommendation",
	Example: `  roi-cli estimate --file brief.yaml
  roi-cli estimate --score revenue=3 --score ux=2 --days backend=10 --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		scores, _ := cmd.Flags().GetStringToString("score")
		days, _ := cmd.Flags().GetStringToString("days")
		format, _ := cmd.Flags().GetString("format")

		form, err := formFromFlags(path, scores, days)
		if err != nil {
			return err
		}
		return runEstimate(os.Stdout, form, format)
	},
}

func init() {
	estimateCmd.Flags().String("file", "", "brief YAML file")
	estimateCmd.Flags().StringToString("score", nil, "criterion score, e.g. revenue=3 (repeatable)")
	estimateCmd.Flags().StringToString("days", nil, "effort days per role, e.g. backend=10 (repeatable)")
	estimateCmd.Flags().String("format", "text", "output format: text or json")
	rootCmd.AddCommand(estimateCmd)
}

// estimateOutput is the JSON shape printed by --format json.
type estimateOutput struct {
	Estimation  model.Estimation `json:"estimation"`
	Figures     estimate.Figures `json:"figures"`
	BriefStatus brief.Status     `json:"brief_status"`
}

func runEstimate(out io.Writer, form model.Form, format string) error {
	fmtr := newFormatter()
	est := newEstimator().Estimate(estimate.SnapshotFromForm(form, false))

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(estimateOutput{
			Estimation:  est,
			Figures:     fmtr.Figures(est),
			BriefStatus: brief.StatusOf(form),
		})
	case "text", "":
		formatEstimate(out, fmtr, form, est)
		return nil
	default:
		return eris.Errorf("unknown output format %q (want text or json)", format)
	}
}

// formatEstimate writes the criterion and role breakdown followed by the
// payback summary.
func formatEstimate(out io.Writer, fmtr *estimate.Formatter, form model.Form, est model.Estimation) {
	figs := fmtr.Figures(est)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CRITERION\tSCORE\tCOEF\tCONVERSION\tBENEFIT")
	for _, c := range est.Criteria {
		_, _ = fmt.Fprintf(w, "%s\t%g\t%g\t%s\t%s\n",
			c.Criterion.Title(), c.Score, c.Coefficient, fmtr.Amount(c.Conversion), fmtr.Currency(c.Contribution))
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "ROLE\tDAYS\tRATE\tCOST")
	for _, l := range est.Lines {
		if l.Days == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%g\t%s\t%s\n", l.Role.Title(), l.Days, fmtr.Amount(l.Rate), fmtr.Currency(l.Cost))
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Development cost:\t%s\n", figs.TotalCost)
	_, _ = fmt.Fprintf(w, "Annual benefit:\t%s\n", figs.AnnualBenefit)
	_, _ = fmt.Fprintf(w, "Payback (months):\t%s\n", figs.PaybackMonths)
	_, _ = fmt.Fprintf(w, "Recommendation:\t%s\n", figs.Recommendation)
	_, _ = fmt.Fprintf(w, "Brief status:\t%s\n", brief.StatusOf(form).Label())
	_ = w.Flush()
}
