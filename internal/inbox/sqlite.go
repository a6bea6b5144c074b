package inbox

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"sms-bridge/internal/models"
)

// SQLiteProvider reads the "sms" table of an Android telephony database.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider opens dbPath read-only.
func NewSQLiteProvider(ctx context.Context, dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open inbox database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping inbox database: %w", err)
	}
	return &SQLiteProvider{db: db}, nil
}

func (p *SQLiteProvider) Query(ctx context.Context, q Query) ([]models.InboxMessage, error) {
	messages := make([]models.InboxMessage, 0)
	if q.Empty() {
		return messages, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT _id, address, body, date, type FROM sms WHERE type = ?`)
	args := []any{models.TypeReceived}

	if q.Start != nil {
		sb.WriteString(` AND date >= ?`)
		args = append(args, *q.Start)
	}
	if q.End != nil {
		sb.WriteString(` AND date <= ?`)
		args = append(args, *q.End)
	}
	if q.SkipEmpty {
		sb.WriteString(` AND address IS NOT NULL AND address != '' AND body IS NOT NULL AND body != ''`)
	}
	if q.Sender != "" {
		sb.WriteString(` AND address LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q.Sender))
	}
	sb.WriteString(` ORDER BY date DESC, _id DESC`)
	switch {
	case q.Limit > 0:
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		sb.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, q.Offset)
	}

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id            int64
			address, body sql.NullString
			m             models.InboxMessage
		)
		if err := rows.Scan(&id, &address, &body, &m.Timestamp, &m.Type); err != nil {
			return nil, fmt.Errorf("scan inbox row: %w", err)
		}
		m.ID = strconv.FormatInt(id, 10)
		m.Address = address.String
		m.Body = body.String
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inbox rows: %w", err)
	}
	return messages, nil
}

func (p *SQLiteProvider) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sms WHERE type = ?`, models.TypeReceived,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count inbox: %w", err)
	}
	return n, nil
}

func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
