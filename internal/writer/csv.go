package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"sms-bridge/internal/models"
)

// StoredFileName is the export file written into the output directory
const StoredFileName = "stored_sms.csv"

// Writer handles CSV file writing
type Writer struct {
	outputDir string
	location  *time.Location
}

// New creates a new Writer instance. Dates are rendered in local time.
func New(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
		location:  time.Local,
	}
}

// WithLocation renders dates in loc instead of local time
func (w *Writer) WithLocation(loc *time.Location) *Writer {
	w.location = loc
	return w
}

// WriteStored writes stored records to stored_sms.csv sorted by timestamp and
// returns the file path
func (w *Writer) WriteStored(messages []models.StoredSMS) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("error creating %s: %w", w.outputDir, err)
	}

	sorted := make([]models.StoredSMS, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	filename := filepath.Join(w.outputDir, StoredFileName)
	fieldnames := []string{"date", "timestamp", "sender", "body"}
	if err := w.writeCSVFile(filename, fieldnames, sorted); err != nil {
		return "", err
	}
	return filename, nil
}

// writeCSVFile writes a single CSV file
func (w *Writer) writeCSVFile(filename string, headers []string, messages []models.StoredSMS) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", filename, err)
	}
	defer file.Close()

	// Write BOM for UTF-8
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("error writing BOM to %s: %w", filename, err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = ';'

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("error writing header to %s: %w", filename, err)
	}

	for _, m := range messages {
		record := []string{
			time.UnixMilli(m.Timestamp).In(w.location).Format("2006-01-02 15:04:05"),
			strconv.FormatInt(m.Timestamp, 10),
			m.Sender,
			m.Body,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing message to %s: %w", filename, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("error flushing writer for %s: %w", filename, err)
	}

	return nil
}
