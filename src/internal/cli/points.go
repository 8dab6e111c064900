package cli

import (
	"context"
	"fmt"
	"io"

	apppoints "github.com/jackyeh168/loyalty_rewards/src/internal/application/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newPurchaseCommand(opts *RootOptions) *cobra.Command {
	var userID, amount, ref string

	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record a purchase and credit points",
		Long: `Record a purchase for a user, credit floor(amount * rate) points and
queue the user for reward evaluation.

Example:
  rewards purchase --user 6f1c... --amount 100.00 --ref order-1042`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				result, err := c.ProcessPurchase.Execute(ctx, apppoints.ProcessPurchaseCommand{
					UserID:      userID,
					Amount:      value,
					ExternalRef: ref,
				})
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					if result.Duplicate {
						fmt.Fprintf(w, "already recorded as %s\n", result.TransactionID)
						return
					}
					fmt.Fprintf(w, "transaction %s: +%d points\n", result.TransactionID, result.PointsEarned)
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "purchase amount, e.g. 25.50 (required)")
	cmd.Flags().StringVar(&ref, "ref", "", "external order reference used for deduplication")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRedeemCommand(opts *RootOptions) *cobra.Command {
	var userID string
	var amount int

	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Redeem points from a user's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				result, err := c.RedeemPoints.Execute(ctx, apppoints.RedeemPointsCommand{UserID: userID, Points: amount})
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					if !result.Redeemed {
						fmt.Fprintf(w, "insufficient points: %d available\n", result.Available)
						return
					}
					fmt.Fprintf(w, "redeemed %d points, %d available\n", amount, result.Available)
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	cmd.Flags().IntVar(&amount, "points", 0, "points to redeem (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("points")
	return cmd
}

func newBalanceCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a user's points balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(_ context.Context, c *bootstrap.Container) error {
				result, err := c.GetBalance.Execute(apppoints.GetPointsBalanceQuery{UserID: userID})
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					fmt.Fprintf(w, "available=%d earned=%d redeemed=%d\n",
						result.Available, result.TotalEarned, result.TotalRedeemed)
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTransactionsCommand(opts *RootOptions) *cobra.Command {
	var userID string
	var limit int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List a user's most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(_ context.Context, c *bootstrap.Container) error {
				results, err := c.ListTransactions.Execute(userID, limit)
				if err != nil {
					return err
				}
				return render(cmd, opts, results, func(w io.Writer) {
					for _, t := range results {
						fmt.Fprintf(w, "%s %-10s %10s %6d %s\n",
							t.CreatedAt.Format("2006-01-02 15:04:05"), t.Type, t.Amount.StringFixed(2), t.PointsEarned, t.TransactionID)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of transactions")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
