package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/schema"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/seed"
	"github.com/spf13/cobra"
)

// ===========================
// migrate
// ===========================

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(_ context.Context, c *bootstrap.Container) error {
				if err := schema.Migrate(c.DB); err != nil {
					return err
				}
				return render(cmd, opts, map[string]string{"status": "ok"}, func(w io.Writer) {
					fmt.Fprintln(w, "schema migrated")
				})
			})
		},
	}
}

// ===========================
// seed
// ===========================

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load achievement and badge definitions",
		Long: `Create the achievement and badge definitions from a YAML catalogue.

Without --file the REWARDS_DEFINITIONS_FILE catalogue is used, or the built-in
default catalogue when that is empty. Definitions that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				path := file
				if path == "" {
					path = c.Config.DefinitionsFile
				}
				catalogue, err := loadCatalogue(path)
				if err != nil {
					return err
				}
				result, err := seed.Apply(ctx, c.Definitions, catalogue, c.Logger)
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					fmt.Fprintf(w, "created %d, skipped %d\n", result.Created, result.Skipped)
				})
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a YAML definition catalogue")
	return cmd
}

func loadCatalogue(path string) (*seed.Catalogue, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

// ===========================
// definitions
// ===========================

func newDefinitionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "definitions",
		Short: "Inspect and toggle achievement and badge definitions",
	}

	var kind string
	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List definitions of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := reward.ParseKind(kind)
			if err != nil {
				return err
			}
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				definitions, err := c.Definitions.List(ctx, k, !all)
				if err != nil {
					return err
				}
				return render(cmd, opts, definitions, func(w io.Writer) {
					for _, d := range definitions {
						status := "active"
						if !d.Active {
							status = "inactive"
						}
						fmt.Fprintf(w, "%s  %-20s tier=%d %s %v\n", d.DefinitionID, d.Name, d.Tier, status, d.Criteria)
					}
				})
			})
		},
	}
	list.Flags().StringVar(&kind, "kind", string(reward.KindAchievement), "achievement or badge")
	list.Flags().BoolVar(&all, "all", false, "include inactive definitions")

	cmd.AddCommand(list)
	cmd.AddCommand(newSetActiveCommand(opts, "activate", true))
	cmd.AddCommand(newSetActiveCommand(opts, "deactivate", false))
	return cmd
}

func newSetActiveCommand(opts *RootOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <definition-id>",
		Short: "Mark a definition as " + map[bool]string{true: "active", false: "inactive"}[active],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				d, err := c.Definitions.SetActive(ctx, args[0], active)
				if err != nil {
					return err
				}
				return render(cmd, opts, d, func(w io.Writer) {
					fmt.Fprintf(w, "%s active=%t\n", d.Name, d.Active)
				})
			})
		},
	}
}

// ===========================
// queue
// ===========================

func newQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the evaluation queue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show pending, in-flight and failed work item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				stats, err := c.Queue.Stats(ctx)
				if err != nil {
					return err
				}
				return render(cmd, opts, stats, func(w io.Writer) {
					fmt.Fprintf(w, "pending=%d in_flight=%d failed=%d\n", stats.Pending, stats.InFlight, stats.Failed)
				})
			})
		},
	})
	return cmd
}
