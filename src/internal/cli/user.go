package cli

import (
	"context"
	"fmt"
	"io"

	appuser "github.com/jackyeh168/loyalty_rewards/src/internal/application/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				result, err := c.RegisterUser.Execute(ctx, appuser.RegisterUserCommand{Name: name, Email: email})
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					fmt.Fprintf(w, "registered %s (%s)\n", result.UserID, result.Email)
				})
			})
		},
	}
	register.Flags().StringVar(&name, "name", "", "display name (required)")
	register.Flags().StringVar(&email, "email", "", "email address (required)")
	_ = register.MarkFlagRequired("name")
	_ = register.MarkFlagRequired("email")

	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(_ context.Context, c *bootstrap.Container) error {
				result, err := c.GetUser.Execute(args[0])
				if err != nil {
					return err
				}
				return render(cmd, opts, result, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s <%s>\n", result.UserID, result.Name, result.Email)
				})
			})
		},
	}

	cmd.AddCommand(register, show)
	return cmd
}
