package cli

import (
	"context"
	"fmt"
	"io"

	appreward "github.com/jackyeh168/loyalty_rewards/src/internal/application/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/broadcast"
	"github.com/spf13/cobra"
)

func newUnlockCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Evaluate a user's achievements and badges now",
		Long: `Run the unlock evaluation for one user synchronously, without going
through the queue. Newly unlocked rewards are printed; already unlocked
rewards are never unlocked twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := user.UserIDFromString(userID)
			if err != nil {
				return err
			}
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				// 部分定義失敗時仍輸出已解鎖的事件，再返回錯誤
				events, unlockErr := c.Coordinator.UnlockAll(ctx, id)

				messages := make([]broadcast.Message, 0, len(events))
				for _, e := range events {
					msg, err := broadcast.NewMessage(e)
					if err != nil {
						return err
					}
					messages = append(messages, msg)
				}
				if err := render(cmd, opts, messages, func(w io.Writer) {
					if len(messages) == 0 {
						fmt.Fprintln(w, "nothing new unlocked")
					}
					for _, m := range messages {
						fmt.Fprintf(w, "%s %s\n", m.EventType, m.Payload)
					}
				}); err != nil {
					return err
				}
				return unlockErr
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newProgressCommand(opts *RootOptions) *cobra.Command {
	var userID, definitionID string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show progress toward achievements and badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := user.UserIDFromString(userID)
			if err != nil {
				return err
			}
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				if definitionID != "" {
					defID, err := reward.DefinitionIDFromString(definitionID)
					if err != nil {
						return err
					}
					percent, err := c.Progress.Progress(ctx, id, defID)
					if err != nil {
						return err
					}
					return render(cmd, opts, map[string]int{"percent": percent}, func(w io.Writer) {
						fmt.Fprintf(w, "%d%%\n", percent)
					})
				}

				results, err := c.Progress.ProgressAll(ctx, id)
				if err != nil {
					return err
				}
				return render(cmd, opts, results, func(w io.Writer) {
					for _, r := range results {
						mark := " "
						if r.Unlocked {
							mark = "*"
						}
						fmt.Fprintf(w, "%s %-12s %-20s %3d%%\n", mark, r.Kind, r.Name, r.Percent)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&definitionID, "definition", "", "only this definition")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSummaryCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a user's balance, rewards and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := user.UserIDFromString(userID)
			if err != nil {
				return err
			}
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				summary, err := c.Summary.Execute(ctx, id)
				if err != nil {
					return err
				}
				return render(cmd, opts, summary, func(w io.Writer) {
					writeSummary(w, summary)
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeSummary(w io.Writer, s *appreward.LoyaltySummary) {
	fmt.Fprintf(w, "points: available=%d earned=%d redeemed=%d\n", s.Available, s.TotalEarned, s.TotalRedeemed)
	if s.CurrentBadge != nil {
		fmt.Fprintf(w, "current badge: %s (tier %d)\n", s.CurrentBadge.Name, s.CurrentBadge.Tier)
	}
	fmt.Fprintf(w, "achievements (%d):\n", len(s.Achievements))
	for _, a := range s.Achievements {
		fmt.Fprintf(w, "  %s  %s\n", a.UnlockedAt.Format("2006-01-02"), a.Name)
	}
	fmt.Fprintf(w, "badges (%d):\n", len(s.Badges))
	for _, b := range s.Badges {
		fmt.Fprintf(w, "  %s  %s\n", b.UnlockedAt.Format("2006-01-02"), b.Name)
	}
	if len(s.RecentTransactions) > 0 {
		fmt.Fprintln(w, "recent transactions:")
		for _, t := range s.RecentTransactions {
			fmt.Fprintf(w, "  %s %-10s %10s %6d\n", t.CreatedAt.Format("2006-01-02"), t.Type, t.Amount, t.PointsEarned)
		}
	}
}
