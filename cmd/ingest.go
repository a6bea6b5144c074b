package cmd

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sms-bridge/internal/events"
	"sms-bridge/internal/models"
	"sms-bridge/internal/pdu"
)

var (
	ingestFrom string
	ingestBody string
	ingestAt   string
	ingestEmit bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [hex-pdu...]",
	Short: "Run one SMS broadcast through the listener",
	Long: `Decode the given hex PDUs (or one PDU per line on stdin) as a single
SMS_RECEIVED broadcast, store the bank messages and print the summary.
With --from and --body a PDU is built from plain text instead.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFrom, "from", "", "Sender of a simulated message")
	ingestCmd.Flags().StringVar(&ingestBody, "body", "", "Body of a simulated message")
	ingestCmd.Flags().StringVar(&ingestAt, "at", "", "Timestamp of a simulated message (RFC3339 or epoch millis, default now)")
	ingestCmd.Flags().BoolVar(&ingestEmit, "emit", false, "Publish matches to the configured redis event stream")
	RootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	pdus, err := collectPDUs(args)
	if err != nil {
		return err
	}
	if len(pdus) == 0 {
		return fmt.Errorf("no PDUs given: pass hex arguments, pipe them on stdin, or use --from and --body")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if ingestEmit {
		if cfg.Events.RedisURL == "" {
			return fmt.Errorf("--emit needs events.redis_url")
		}
		pub, err := events.NewRedisPublisher(ctx, cfg.Events.RedisURL, cfg.Events.Stream)
		if err != nil {
			return fmt.Errorf("failed to connect event stream: %w", err)
		}
		defer pub.Close()
		a.listener.Attach(pub)
	}

	summary := a.listener.Receive(ctx, models.Broadcast{
		Action: models.SMSReceivedAction,
		PDUs:   pdus,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func collectPDUs(args []string) ([][]byte, error) {
	if ingestFrom != "" || ingestBody != "" {
		at, err := parseAt(ingestAt)
		if err != nil {
			return nil, err
		}
		raw, err := pdu.EncodeDeliver(ingestFrom, ingestBody, at)
		if err != nil {
			return nil, fmt.Errorf("failed to build PDU: %w", err)
		}
		return [][]byte{raw}, nil
	}

	lines := args
	if len(lines) == 0 && stdinIsPipe() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	pdus := make([][]byte, 0, len(lines))
	for i, line := range lines {
		raw, err := hex.DecodeString(strings.TrimSpace(line))
		if err != nil {
			// Passed on empty so the listener counts it as malformed.
			logger.Warn().Err(err).Int("pdu", i).Msg("pdu is not valid hex")
			raw = nil
		}
		pdus = append(pdus, raw)
	}
	return pdus, nil
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at (use RFC3339 or epoch millis): %w", err)
	}
	return t, nil
}

// stdinIsPipe reports whether stdin carries piped data.
func stdinIsPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
