package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/store"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Compose a brief or final-evaluation e-mail from a brief file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		requester, _ := cmd.Flags().GetString("requester")
		kind, _ := cmd.Flags().GetString("kind")
		noArchive, _ := cmd.Flags().GetBool("no-archive")

		form, err := loadBriefFile(path)
		if err != nil {
			return err
		}

		var st store.Store
		if !noArchive {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close() //nolint:errcheck
				if err := st.Migrate(ctx); err != nil {
					return err
				}
			}
		}

		return runBrief(ctx, os.Stdout, st, model.EvaluationKind(kind), form, requester)
	},
}

func init() {
	briefCmd.Flags().String("file", "", "brief YAML file")
	briefCmd.Flags().String("requester", "", "requester e-mail (default: requester from the brief file)")
	briefCmd.Flags().String("kind", string(model.EvaluationKindBrief), "message kind: brief or final")
	briefCmd.Flags().Bool("no-archive", false, "do not record the composed message in the archive")
	_ = briefCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(briefCmd)
}

// runBrief composes the message, archives it when st is non-nil and
// prints it to out. An invalid recipient aborts before anything is saved.
func runBrief(ctx context.Context, out io.Writer, st store.Store, kind model.EvaluationKind, form model.Form, requester string) error {
	if kind != model.EvaluationKindBrief && kind != model.EvaluationKindFinal {
		return eris.Errorf("unknown kind %q (want brief or final)", kind)
	}
	if requester == "" {
		requester = form[model.FieldRequester]
	}

	fmtr := newFormatter()
	est := newEstimator().Estimate(estimate.SnapshotFromForm(form, false))
	msg, err := newComposer(fmtr).Compose(kind, form, requester, est)
	if err != nil {
		return eris.Wrap(err, "compose")
	}

	var id string
	if st != nil {
		requester, _ = brief.ValidateRecipient(requester)
		ev := &model.Evaluation{Kind: kind, Requester: requester, Fields: form, Estimation: est}
		if err := st.SaveEvaluation(ctx, ev); err != nil {
			return eris.Wrap(err, "archive evaluation")
		}
		id = ev.ID
		zap.L().Info("evaluation archived", zap.String("id", id), zap.String("kind", string(kind)))
	}

	formatMessage(out, msg, id)
	return nil
}

func formatMessage(out io.Writer, msg brief.Message, id string) {
	_, _ = fmt.Fprintf(out, "To: %s\n", msg.To)
	if msg.CC != "" {
		_, _ = fmt.Fprintf(out, "CC: %s\n", msg.CC)
	}
	_, _ = fmt.Fprintf(out, "Subject: %s\n\n", msg.Subject)
	_, _ = fmt.Fprintln(out, msg.Body)
	_, _ = fmt.Fprintf(out, "\nMailto: %s\n", msg.MailtoURL())
	if id != "" {
		_, _ = fmt.Fprintf(out, "Archived: %s\n", id)
	}
}
