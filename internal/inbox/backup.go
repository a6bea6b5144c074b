package inbox

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sms-bridge/internal/models"
)

// BackupProvider serves the inbox from an SMS Backup & Restore XML file.
// The file is re-read on every call so a fresh export is picked up.
type BackupProvider struct {
	filePath string
}

// NewBackupProvider creates a provider for the XML export at filePath
func NewBackupProvider(filePath string) *BackupProvider {
	return &BackupProvider{filePath: filePath}
}

// load reads and parses the backup file, returning unique messages
func (p *BackupProvider) load() ([]models.InboxMessage, error) {
	// Read XML file
	xmlFile, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	// Parse XML
	var backup models.SMSBackup
	if err := xml.Unmarshal(xmlFile, &backup); err != nil {
		return nil, fmt.Errorf("error parsing XML: %w", err)
	}

	messages := make([]models.InboxMessage, 0, len(backup.SMS))
	seen := make(map[string]bool)

	for _, sms := range backup.SMS {
		// Create message signature for deduplication
		signature := fmt.Sprintf("%s|%s|%s", sms.Date, sms.Address, sms.Body)
		if seen[signature] {
			continue
		}
		seen[signature] = true

		dateMs, err := strconv.ParseInt(strings.TrimSpace(sms.Date), 10, 64)
		if err != nil {
			continue
		}

		msgType, err := strconv.Atoi(strings.TrimSpace(sms.Type))
		if err != nil {
			msgType = models.TypeReceived
		}

		messages = append(messages, models.InboxMessage{
			ID:        models.RecordID(sms.Address, dateMs),
			Address:   sms.Address,
			Body:      sms.Body,
			Timestamp: dateMs,
			Type:      msgType,
		})
	}

	return messages, nil
}

func (p *BackupProvider) Query(ctx context.Context, q Query) ([]models.InboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := p.load()
	if err != nil {
		return nil, err
	}
	return q.apply(all), nil
}

func (p *BackupProvider) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	all, err := p.load()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range all {
		if m.Type == models.TypeReceived {
			n++
		}
	}
	return n, nil
}

func (p *BackupProvider) Close() error { return nil }
