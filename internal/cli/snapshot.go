package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand writes the whole ledger as a legacy slot document.
func NewExportCommand(load Loader) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a snapshot document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), load, func(ctx context.Context, svc Services) error {
				snapshot, err := svc.Snapshots.Export(ctx)
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}

				encoded, err := json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return err
				}
				encoded = append(encoded, '\n')

				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(encoded)
					return err
				}
				if err := os.WriteFile(out, encoded, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s (%d students)\n", out, len(snapshot.Students))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	return cmd
}

// NewImportCommand replaces the ledger with the contents of a snapshot document.
func NewImportCommand(load Loader) *cobra.Command {
	var (
		in      string
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the ledger with a snapshot document",
		Long: `Replace every student, log, review and archive image with the contents
of a snapshot document. Slots that are missing or unreadable import as empty
and are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errConfirmationRequired
			}

			payload, err := readInput(cmd, in)
			if err != nil {
				return err
			}

			return withServices(cmd.Context(), load, func(ctx context.Context, svc Services) error {
				result, err := svc.Snapshots.Import(ctx, payload)
				if err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}

				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			})
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "snapshot file to read (- for stdin)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm that the current ledger is replaced")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return payload, nil
}
