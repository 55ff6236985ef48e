package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewReportCommand writes the ledger as an XLSX workbook.
func NewReportCommand(load Loader) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the ledger as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), load, func(ctx context.Context, svc Services) error {
				file, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return fmt.Errorf("open %s: %w", out, err)
				}

				if err := svc.Reports.WriteWorkbook(ctx, file); err != nil {
					_ = file.Close()
					return fmt.Errorf("write report: %w", err)
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "xlsx file to write")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
