package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// errConfirmationRequired is returned by destructive commands run without --confirm.
var errConfirmationRequired = errors.New("refusing to continue without --confirm")

// NewRootCommand creates the ledgerctl command tree. A nil loader uses DefaultLoader.
func NewRootCommand(load Loader) *cobra.Command {
	if load == nil {
		load = DefaultLoader
	}

	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operator tooling for the lesson ledger",
		Long:          "Back up, restore and recover the lesson ledger without going through the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewExportCommand(load))
	cmd.AddCommand(NewImportCommand(load))
	cmd.AddCommand(NewPasscodeCommand(load))
	cmd.AddCommand(NewReportCommand(load))

	return cmd
}
