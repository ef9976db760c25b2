package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/estimate"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "roi-cli",
	Short: "ROI estimator for proposed product tasks",
	Long:  "Scores a task on four value criteria, costs its effort by role, computes the payback period and composes brief and final-evaluation e-mails.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newEstimator() *estimate.Estimator {
	return estimate.NewFromConfig(cfg.Estimate)
}

func newFormatter() *estimate.Formatter {
	return estimate.NewFormatterFromConfig(cfg.Format)
}

func newComposer(format *estimate.Formatter) *brief.Composer {
	return brief.NewComposer(format, cfg.Server.PublicURL, cfg.Mail.DeskRecipient, cfg.Mail.Organisation)
}
