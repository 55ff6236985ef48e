package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPasscodeCommand groups passcode maintenance.
func NewPasscodeCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passcode",
		Short: "Manage the admin passcode",
	}
	cmd.AddCommand(newPasscodeResetCommand(load))
	return cmd
}

func newPasscodeResetCommand(load Loader) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored passcode so the next login sets a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errConfirmationRequired
			}

			return withServices(cmd.Context(), load, func(ctx context.Context, svc Services) error {
				if err := svc.Auth.ResetPasscode(ctx); err != nil {
					return fmt.Errorf("reset passcode: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "passcode cleared; the next login sets a new one")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the reset")
	return cmd
}
