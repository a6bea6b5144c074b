package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sms-bridge/internal/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Report whether a message body looks like a bank SMS",
	Args:  cobra.MinimumNArgs(1),
	// No config or store needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		body := strings.Join(args, " ")
		keyword, group, ok := classifier.Match(body)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "not a bank SMS")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bank SMS (matched %q, group %s)\n", keyword, group)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(classifyCmd)
}
