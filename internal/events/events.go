// Package events delivers real-time notifications to the host application.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"sms-bridge/internal/models"
)

// ErrNoSubscribers is returned by sinks that had nobody to deliver to.
var ErrNoSubscribers = errors.New("no subscribers")

// Emitter sends an event to a live host context.
type Emitter interface {
	Emit(ctx context.Context, event models.Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, event models.Event) error

func (f EmitterFunc) Emit(ctx context.Context, event models.Event) error {
	return f(ctx, event)
}

// NewSMSReceived builds the event announcing a captured bank SMS.
func NewSMSReceived(sender, body string, timestamp int64) models.Event {
	return models.Event{
		Name: models.EventSMSReceived,
		ID:   ulid.Make().String(),
		Payload: models.EventPayload{
			Sender:    sender,
			Body:      body,
			Timestamp: timestamp,
		},
		EmittedAt: time.Now().UnixMilli(),
	}
}

// Fanout emits to every sink and joins their errors. A sink without
// subscribers is not a failure; ErrNoSubscribers is returned only when no
// sink delivered and none failed otherwise.
type Fanout []Emitter

func (f Fanout) Emit(ctx context.Context, event models.Event) error {
	var (
		errs      []error
		delivered int
		idle      int
	)
	for _, e := range f {
		if e == nil {
			continue
		}
		switch err := e.Emit(ctx, event); {
		case err == nil:
			delivered++
		case errors.Is(err, ErrNoSubscribers):
			idle++
		default:
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 && delivered == 0 && idle > 0 {
		return ErrNoSubscribers
	}
	return errors.Join(errs...)
}
