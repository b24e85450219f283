package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/demo"
	"github.com/csheth/candyrag/internal/logging"
)

func newServeCmd(o *options) *cobra.Command {
	var (
		noLatency bool
		cacheTTL  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo candy store backend",
		Long: `Serves the candy store API the terminal UI talks to:

  GET  /          welcome message
  GET  /health    liveness
  GET  /candies   the catalog
  POST /query     run the RAG pipeline for {"query", "language"}
  POST /reset     clear cached answers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.NewConsole(cmd.ErrOrStderr(), o.cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			server, err := demo.NewServer(demo.Options{
				SimulateLatency: !noLatency,
				CacheTTL:        cacheTTL,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger.Info("demo backend starting", zap.String("listen", o.cfg.Listen))
			return server.ListenAndServe(ctx, o.cfg.Listen)
		},
	}
	cmd.Flags().String("listen", "", "address to listen on (default :8000)")
	cmd.Flags().BoolVar(&noLatency, "no-latency", false, "answer without the simulated per-step delay")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0, "how long identical queries are answered from cache")
	return cmd
}
