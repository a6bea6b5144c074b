// Package listener handles SMS-received broadcasts: each PDU is decoded,
// classified, and bank messages are persisted and optionally forwarded to a
// live host context.
package listener

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"sms-bridge/internal/classifier"
	"sms-bridge/internal/events"
	"sms-bridge/internal/metrics"
	"sms-bridge/internal/models"
	"sms-bridge/internal/pdu"
)

// Decoder turns a raw PDU into a message.
type Decoder interface {
	Decode(raw []byte) (pdu.Message, error)
}

// Appender persists a captured record.
type Appender interface {
	Append(ctx context.Context, r models.Record) (int, error)
}

// Summary counts what happened to one broadcast.
type Summary struct {
	Received  int `json:"received"`
	Malformed int `json:"malformed"`
	Matched   int `json:"matched"`
	Stored    int `json:"stored"`
	Emitted   int `json:"emitted"`
}

// Listener is the broadcast entry point.
type Listener struct {
	decoder Decoder
	store   Appender
	logger  zerolog.Logger

	mu      sync.RWMutex
	emitter events.Emitter
}

// New creates a listener. A nil decoder selects the GSM 03.40 decoder.
func New(decoder Decoder, store Appender, logger zerolog.Logger) *Listener {
	if decoder == nil {
		decoder = pdu.NewDecoder()
	}
	return &Listener{
		decoder: decoder,
		store:   store,
		logger:  logger.With().Str("component", "listener").Logger(),
	}
}

// Attach sets the live host context that receives SMSReceived events.
func (l *Listener) Attach(e events.Emitter) {
	l.mu.Lock()
	l.emitter = e
	l.mu.Unlock()
}

// Detach removes the live host context; later broadcasts are stored only.
func (l *Listener) Detach() {
	l.mu.Lock()
	l.emitter = nil
	l.mu.Unlock()
}

// Attached reports whether an emitter is set.
func (l *Listener) Attached() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.emitter != nil
}

func (l *Listener) currentEmitter() events.Emitter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.emitter
}

// Receive processes one broadcast. Failures on individual PDUs are logged
// and never stop the remaining PDUs; nothing is returned to the caller
// besides the summary.
func (l *Listener) Receive(ctx context.Context, b models.Broadcast) Summary {
	var sum Summary

	if b.Action != models.SMSReceivedAction {
		metrics.BroadcastsReceived.WithLabelValues("ignored").Inc()
		l.logger.Debug().Str("action", b.Action).Msg("ignoring broadcast")
		return sum
	}
	metrics.BroadcastsReceived.WithLabelValues("sms_received").Inc()

	for i, raw := range b.PDUs {
		sum.Received++

		msg, err := l.decoder.Decode(raw)
		if err != nil {
			sum.Malformed++
			metrics.PDUsProcessed.WithLabelValues("malformed").Inc()
			l.logger.Warn().Err(err).Int("pdu", i).Msg("skipping malformed pdu")
			continue
		}

		keyword, group, ok := classifier.Match(msg.Body)
		if !ok {
			metrics.PDUsProcessed.WithLabelValues("ignored").Inc()
			continue
		}
		sum.Matched++
		metrics.PDUsProcessed.WithLabelValues("matched").Inc()
		metrics.MessagesMatched.WithLabelValues(string(group)).Inc()

		l.logger.Info().
			Str("sender", msg.Sender).
			Str("keyword", keyword).
			Int64("timestamp", msg.Timestamp).
			Msg("bank sms received")

		record := models.NewRecord(msg.Sender, msg.Body, msg.Timestamp)
		if index, err := l.store.Append(ctx, record); err != nil {
			metrics.StoreFailures.Inc()
			l.logger.Error().Err(err).Str("id", record.ID).Msg("failed to store sms")
		} else {
			sum.Stored++
			metrics.RecordsStored.Inc()
			l.logger.Debug().Int("index", index).Str("id", record.ID).Msg("sms stored")
		}

		emitter := l.currentEmitter()
		if emitter == nil {
			continue
		}
		event := events.NewSMSReceived(msg.Sender, msg.Body, msg.Timestamp)
		if err := emitter.Emit(ctx, event); err != nil {
			if errors.Is(err, events.ErrNoSubscribers) {
				l.logger.Debug().Str("event_id", event.ID).Msg("no subscribers for sms event")
				continue
			}
			l.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to emit sms event")
			continue
		}
		sum.Emitted++
	}

	l.logger.Debug().
		Int("received", sum.Received).
		Int("malformed", sum.Malformed).
		Int("matched", sum.Matched).
		Int("stored", sum.Stored).
		Int("emitted", sum.Emitted).
		Msg("broadcast processed")
	return sum
}
