package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCommand(opts *RootOptions) *cobra.Command {
	var follow bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume the evaluation queue until interrupted",
		Long: `Start the reward evaluation workers. Each queued purchase is evaluated
with bounded retries; work items that exhaust their retries are recorded
as failed (see "rewards queue stats").

With --follow every unlock event is also written to stdout as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withContainer(cmd, func(_ context.Context, c *bootstrap.Container) error {
				if concurrency > 0 {
					c.Config.Worker.Concurrency = concurrency
				}
				if follow {
					messages, cancel := c.Hub.Subscribe("")
					defer cancel()
					go func() {
						enc := json.NewEncoder(cmd.OutOrStdout())
						for msg := range messages {
							if err := enc.Encode(msg); err != nil {
								c.Logger.Warn("failed to write unlock event", zap.Error(err))
							}
						}
					}()
				}

				c.Logger.Info("worker starting",
					zap.String("queue_backend", c.Config.Queue.Backend),
					zap.Int("concurrency", c.Config.Worker.Concurrency),
					zap.Int("max_attempts", c.Config.Worker.MaxAttempts),
				)
				return c.WorkerPool().Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "print unlock events as JSON lines")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of workers (default REWARDS_WORKER_CONCURRENCY)")
	return cmd
}
