package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/metrics"
	"github.com/sells-group/roi-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimation form and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		} else {
			zap.L().Info("evaluation archive disabled")
		}

		rec := metrics.New()
		fmtr := newFormatter()
		srv, err := server.New(server.Options{
			Estimator: newEstimator(),
			Format:    fmtr,
			Composer:  newComposer(fmtr),
			Gate:      brief.NewGate(cfg.Admin.Secret),
			Store:     st,
			Metrics:   rec,
			Config:    cfg.Server,
		})
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.ListenAndServe(gctx, "api", fmt.Sprintf(":%d", port), srv.Router())
		})
		if cfg.Metrics.Address != "" {
			g.Go(func() error {
				return server.ListenAndServe(gctx, "metrics", cfg.Metrics.Address, rec.Router())
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
