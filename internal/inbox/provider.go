// Package inbox reads the device SMS inbox.
//
// Two sources are supported: the Android telephony database (mmssms.db,
// table "sms") and an SMS Backup & Restore XML export. Only received
// messages (type 1) are ever returned, newest first.
package inbox

import (
	"context"
	"sort"
	"strings"

	"sms-bridge/internal/models"
	"sms-bridge/internal/utils"
)

// Query narrows an inbox read. Zero values mean "no restriction".
type Query struct {
	// Start and End bound the timestamp (epoch millis), both inclusive.
	Start *int64
	End   *int64

	// Sender keeps messages whose address contains it, case-insensitively.
	Sender string

	// SkipEmpty drops messages with an empty address or body.
	SkipEmpty bool

	Limit  int
	Offset int
}

// Between returns a query restricted to [start, end].
func Between(start, end int64) Query {
	return Query{Start: &start, End: &end}
}

// Provider is a readable SMS inbox.
type Provider interface {
	// Query returns matching received messages sorted newest first.
	Query(ctx context.Context, q Query) ([]models.InboxMessage, error)

	// Count returns the number of received messages in the inbox.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Empty reports whether q can never match anything.
func (q Query) Empty() bool {
	return q.Start != nil && q.End != nil && *q.Start > *q.End
}

func (q Query) matches(m models.InboxMessage) bool {
	if m.Type != models.TypeReceived {
		return false
	}
	if q.Start != nil && m.Timestamp < *q.Start {
		return false
	}
	if q.End != nil && m.Timestamp > *q.End {
		return false
	}
	if q.SkipEmpty && (m.Address == "" || m.Body == "") {
		return false
	}
	if q.Sender != "" && !utils.ContainsFold(m.Address, q.Sender) {
		return false
	}
	return true
}

// apply filters, sorts and pages an in-memory message list.
func (q Query) apply(all []models.InboxMessage) []models.InboxMessage {
	out := make([]models.InboxMessage, 0, len(all))
	if q.Empty() {
		return out
	}
	for _, m := range all {
		if q.matches(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return out[:0]
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

// likePattern escapes s for use in a LIKE ... ESCAPE '\' clause.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Unavailable stands in for a source that could not be opened. Every read
// fails with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) Query(ctx context.Context, q Query) ([]models.InboxMessage, error) {
	return nil, u.Err
}

func (u Unavailable) Count(ctx context.Context) (int, error) {
	return 0, u.Err
}

func (u Unavailable) Close() error { return nil }
