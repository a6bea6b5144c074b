package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sms-bridge/internal/models"
)

var (
	inboxLimit  int
	inboxOffset int
	inboxSender string
	inboxStart  string
	inboxEnd    string
	inboxJSON   bool
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Query the device SMS inbox",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List received messages, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		var msgs []models.InboxMessage
		switch {
		case inboxSender != "":
			msgs, err = a.bridge.ListFromSender(cmd.Context(), inboxSender)
		case inboxLimit > 0 || inboxOffset > 0:
			msgs, err = a.bridge.ListPage(cmd.Context(), inboxLimit, inboxOffset)
		default:
			msgs, err = a.bridge.ListAll(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printInbox(cmd.OutOrStdout(), msgs)
	},
}

var inboxRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "List received messages between two dates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseAt(inboxStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := parseAt(inboxEnd)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.bridge.ListInRange(cmd.Context(), start.UnixMilli(), end.UnixMilli())
		if err != nil {
			return err
		}
		return printInbox(cmd.OutOrStdout(), msgs)
	},
}

var inboxCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of received messages (0 without permission)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.bridge.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var inboxPermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Report whether the inbox may be read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		granted, err := a.bridge.CheckPermission(cmd.Context())
		if err != nil {
			return err
		}
		if granted {
			fmt.Fprintln(cmd.OutOrStdout(), "granted")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "denied")
		}
		return nil
	},
}

func init() {
	inboxListCmd.Flags().IntVarP(&inboxLimit, "limit", "n", 0, "Maximum number of messages (0 = all)")
	inboxListCmd.Flags().IntVar(&inboxOffset, "offset", 0, "Number of newest messages to skip")
	inboxListCmd.Flags().StringVarP(&inboxSender, "sender", "s", "", "Only messages whose sender contains this text")

	inboxRangeCmd.Flags().StringVar(&inboxStart, "start", "", "Start of the range (RFC3339 or epoch millis)")
	inboxRangeCmd.Flags().StringVar(&inboxEnd, "end", "", "End of the range (RFC3339 or epoch millis, default now)")
	inboxRangeCmd.MarkFlagRequired("start")

	inboxCmd.PersistentFlags().BoolVar(&inboxJSON, "json", false, "Print JSON instead of a table")
	inboxCmd.AddCommand(inboxListCmd, inboxRangeCmd, inboxCountCmd, inboxPermissionCmd)
	RootCmd.AddCommand(inboxCmd)
}

func printInbox(out io.Writer, msgs []models.InboxMessage) error {
	if inboxJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSENDER\tBODY")
	for _, m := range msgs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04:05"), m.Address, oneLine(m.Body))
	}
	return tw.Flush()
}
