package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-bridge/internal/listener"
	"sms-bridge/internal/writer"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "store:\n" +
		"  backend: sqlite\n" +
		"  path: " + filepath.Join(dir, "store.db") + "\n" +
		"inbox:\n" +
		"  source: backup\n" +
		"  path: " + filepath.Join(dir, "missing.xml") + "\n" +
		"  permission: denied\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClassifyCommand(t *testing.T) {
	out := execute(t, "classify", "Rs.500", "debited", "from", "your", "account")
	assert.Contains(t, out, `matched "Debit"`)

	out = execute(t, "classify", "see you soon")
	assert.Contains(t, out, "not a bank SMS")
}

func TestIngestExportFlow(t *testing.T) {
	cfgPath := writeConfig(t)
	outDir := filepath.Join(t.TempDir(), "export")

	out := execute(t, "--config", cfgPath, "ingest",
		"--from", "HDFCBank", "--body", "Rs.500 debited from your account", "--at", "1700000000000")
	var summary listener.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, listener.Summary{Received: 1, Matched: 1, Stored: 1}, summary)
	ingestFrom, ingestBody, ingestAt = "", "", ""

	out = execute(t, "--config", cfgPath, "stored", "export", "--output", outDir, "--clear")
	assert.Contains(t, out, "with 1 messages")
	assert.Contains(t, out, "Stored SMS cleared.")
	clearAfter = false

	data, err := os.ReadFile(filepath.Join(outDir, writer.StoredFileName))
	require.NoError(t, err)
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HDFCBank", rows[1][2])

	out = execute(t, "--config", cfgPath, "stored", "list")
	assert.JSONEq(t, "[]", out)

	out = execute(t, "--config", cfgPath, "inbox", "count")
	assert.Equal(t, "0\n", out)
}

func TestParseAt(t *testing.T) {
	got, err := parseAt("1700000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), got.UnixMilli())

	got, err = parseAt("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.UnixMilli(1700000000000)))

	_, err = parseAt("yesterday")
	assert.Error(t, err)
}
