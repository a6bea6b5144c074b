package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sms-bridge/internal/writer"
)

var (
	outputDir  string
	clearAfter bool
)

var storedCmd = &cobra.Command{
	Use:   "stored",
	Short: "Inspect, export or clear captured bank SMS",
}

var storedListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print captured bank SMS without clearing them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.bridge.DrainStored(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	},
}

var storedClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every captured bank SMS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.bridge.ClearStored(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Stored SMS cleared.")
		return nil
	},
}

var storedExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write captured bank SMS to stored_sms.csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, upto, err := a.bridge.SnapshotStored(cmd.Context())
		if err != nil {
			return err
		}

		w := writer.New(outputDir)
		filename, err := w.WriteStored(msgs)
		if err != nil {
			return fmt.Errorf("failed to write stored SMS: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d messages.\n", filename, len(msgs))

		// Records stored after the snapshot stay for the next export.
		if clearAfter {
			if _, err := a.bridge.ClearStoredThrough(cmd.Context(), upto); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored SMS cleared.")
		}
		return nil
	},
}

func init() {
	storedExportCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for the CSV file (created if not exists)")
	storedExportCmd.Flags().BoolVar(&clearAfter, "clear", false, "Clear the store after a successful export")

	storedCmd.AddCommand(storedListCmd, storedClearCmd, storedExportCmd)
	RootCmd.AddCommand(storedCmd)
}

// oneLine flattens newlines for tabular output.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
