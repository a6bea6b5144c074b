package store

import (
	"encoding/json"
	"fmt"

	"sms-bridge/internal/apperr"
	"sms-bridge/internal/models"
)

// encodeRecord and decodeRecord are the only two functions that know the
// on-disk record format. Change them together.

func encodeRecord(r models.Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return string(data), nil
}

func decodeRecord(raw string) (models.Record, error) {
	var r models.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.Record{}, fmt.Errorf("decode record: %w: %w", apperr.ErrDecode, err)
	}
	return r, nil
}
