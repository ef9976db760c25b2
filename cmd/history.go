package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived briefs and final evaluations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

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
			return eris.Wrap(err, "history")
		}
		if len(evals) == 0 {
			fmt.Fprintln(os.Stderr, "No evaluations found.")
			return nil
		}

		formatEvaluations(os.Stdout, newFormatter(), evals)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <evaluation-id>",
	Short: "Show an archived evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openArchive(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ev, err := st.GetEvaluation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	},
}

func init() {
	addFilterFlags(historyCmd, 50)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func addFilterFlags(cmd *cobra.Command, limit int) {
	cmd.Flags().String("kind", "", "filter by kind (brief, final)")
	cmd.Flags().String("requester", "", "filter by requester e-mail")
	cmd.Flags().Int("limit", limit, "max number of evaluations")
}

func filterFromFlags(cmd *cobra.Command) (store.EvaluationFilter, error) {
	kind, _ := cmd.Flags().GetString("kind")
	requester, _ := cmd.Flags().GetString("requester")
	limit, _ := cmd.Flags().GetInt("limit")

	switch model.EvaluationKind(kind) {
	case "", model.EvaluationKindBrief, model.EvaluationKindFinal:
	default:
		return store.EvaluationFilter{}, eris.Errorf("unknown kind %q (want brief or final)", kind)
	}
	return store.EvaluationFilter{
		Kind:      model.EvaluationKind(kind),
		Requester: requester,
		Limit:     limit,
	}, nil
}

// formatEvaluations writes a tabular list of evaluations to w.
func formatEvaluations(out io.Writer, fmtr *estimate.Formatter, evals []model.Evaluation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tTITLE\tREQUESTER\tPAYBACK\tRECOMMENDATION\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t---------\t-------\t--------------\t-------")

	for _, ev := range evals {
		title := ev.Title()
		if title == "" {
			title = "-"
		}
		if r := []rune(title); len(r) > 30 {
			title = string(r[:27]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(ev.ID),
			ev.Kind,
			title,
			ev.Requester,
			fmtr.Months(ev.Estimation.PaybackMonths),
			ev.Estimation.Recommendation.Label(),
			ev.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
