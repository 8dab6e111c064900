// Package cli 提供 rewards 命令列工具
package cli

import (
	"context"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/config"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

// 輸出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Opener 建立 Container；cleanup 在命令結束時呼叫
type Opener func(ctx context.Context) (c *bootstrap.Container, cleanup func(), err error)

// RootOptions 所有子命令共用的旗標
type RootOptions struct {
	EnvFile string
	Format  string

	// Open 為 nil 時從環境變數讀取設定並開啟資料庫
	Open Opener
}

// NewRootCommand 建立 rewards 根命令
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions 以指定選項建立根命令（測試時可注入 Opener）
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Loyalty points, achievements and badges",
		Long: `rewards records purchases as loyalty points, lets users redeem them,
and unlocks achievements and badges from each user's purchase history.

Configuration is read from REWARDS_* environment variables (optionally from a .env file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != FormatText && opts.Format != FormatJSON {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "path to a .env file (default: .env if present)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newPurchaseCommand(opts))
	cmd.AddCommand(newRedeemCommand(opts))
	cmd.AddCommand(newBalanceCommand(opts))
	cmd.AddCommand(newTransactionsCommand(opts))
	cmd.AddCommand(newUnlockCommand(opts))
	cmd.AddCommand(newProgressCommand(opts))
	cmd.AddCommand(newSummaryCommand(opts))
	cmd.AddCommand(newDefinitionsCommand(opts))
	cmd.AddCommand(newWorkerCommand(opts))
	cmd.AddCommand(newQueueCommand(opts))

	return cmd
}

// open 取得 Container
func (o *RootOptions) open(ctx context.Context) (*bootstrap.Container, func(), error) {
	if o.Open != nil {
		return o.Open(ctx)
	}

	var files []string
	if o.EnvFile != "" {
		files = append(files, o.EnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	c, err := bootstrap.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		_ = c.Close()
		_ = logger.Sync()
	}
	return c, cleanup, nil
}

// withContainer 開啟 Container 執行 fn，結束後釋放資源
func (o *RootOptions) withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, cleanup, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, c)
}
