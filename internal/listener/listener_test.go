package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-bridge/internal/events"
	"sms-bridge/internal/models"
	"sms-bridge/internal/pdu"
	"sms-bridge/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (r *recorder) Emit(ctx context.Context, e models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) payloads() []models.EventPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventPayload, len(r.events))
	for i, e := range r.events {
		out[i] = e.Payload
	}
	return out
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, r models.Record) (int, error) {
	return 0, errors.New("disk full")
}

func encode(t *testing.T, sender, body string, ms int64) []byte {
	t.Helper()
	raw, err := pdu.EncodeDeliver(sender, body, time.UnixMilli(ms).UTC())
	require.NoError(t, err)
	return raw
}

func newListener(t *testing.T) (*Listener, *store.MetadataStore, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	s := store.NewMetadataStore(kv, zerolog.Nop())
	t.Cleanup(func() { s.Close() })
	return New(nil, s, zerolog.Nop()), s, kv
}

func broadcast(pdus ...[]byte) models.Broadcast {
	return models.Broadcast{Action: models.SMSReceivedAction, PDUs: pdus}
}

func TestReceive_BankSMSStoredAndEmitted(t *testing.T) {
	ctx := context.Background()
	l, s, kv := newListener(t)
	rec := &recorder{}
	l.Attach(rec)

	sum := l.Receive(ctx, broadcast(encode(t, "HDFCBank", "Rs.500 debited from your account", 1700000000000)))
	assert.Equal(t, Summary{Received: 1, Matched: 1, Stored: 1, Emitted: 1}, sum)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.Record{
		ID:        "sms_HDFCBank_1700000000000",
		Sender:    "HDFCBank",
		Body:      "Rs.500 debited from your account",
		Timestamp: 1700000000000,
	}, records[0])

	count, ok, err := kv.Get(ctx, "new_sms_count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", count)
	_, ok, err = kv.Get(ctx, "sms_0")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []models.EventPayload{{
		Sender:    "HDFCBank",
		Body:      "Rs.500 debited from your account",
		Timestamp: 1700000000000,
	}}, rec.payloads())
	assert.Equal(t, models.EventSMSReceived, rec.events[0].Name)
}

func TestReceive_NonBankIgnored(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)
	rec := &recorder{}
	l.Attach(rec)

	sum := l.Receive(ctx, broadcast(encode(t, "+15551234567", "See you at dinner", 1700000000000)))
	assert.Equal(t, Summary{Received: 1}, sum)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.payloads())
}

func TestReceive_MalformedDoesNotStopSiblings(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)

	sum := l.Receive(ctx, broadcast(
		encode(t, "SBIINB", "Balance is Rs 100", 1700000000000),
		[]byte{0x00, 0x04, 0x0B},
		nil,
		encode(t, "AXISBK", "ATM withdrawal of Rs 2000", 1700000001000),
	))
	assert.Equal(t, Summary{Received: 4, Malformed: 2, Matched: 2, Stored: 2}, sum)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SBIINB", records[0].Sender)
	assert.Equal(t, "AXISBK", records[1].Sender)
}

func TestReceive_OtherActionIgnored(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)

	sum := l.Receive(ctx, models.Broadcast{
		Action: "android.intent.action.BOOT_COMPLETED",
		PDUs:   [][]byte{encode(t, "HDFCBank", "Rs.500 debited", 1700000000000)},
	})
	assert.Equal(t, Summary{}, sum)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReceive_NoEmitAfterDetach(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)
	rec := &recorder{}

	l.Attach(rec)
	assert.True(t, l.Attached())
	l.Detach()
	assert.False(t, l.Attached())

	sum := l.Receive(ctx, broadcast(encode(t, "HDFCBank", "Rs.500 debited from your account", 1700000000000)))
	assert.Equal(t, Summary{Received: 1, Matched: 1, Stored: 1}, sum)
	assert.Empty(t, rec.payloads())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReceive_StoreFailureStillEmits(t *testing.T) {
	rec := &recorder{}
	l := New(nil, failingStore{}, zerolog.Nop())
	l.Attach(rec)

	sum := l.Receive(context.Background(), broadcast(encode(t, "KOTAK", "UPI payment received", 1700000000000)))
	assert.Equal(t, Summary{Received: 1, Matched: 1, Emitted: 1}, sum)
	assert.Len(t, rec.payloads(), 1)
}

func TestReceive_EmitFailureStillStores(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)
	l.Attach(&recorder{err: errors.New("host gone")})

	sum := l.Receive(ctx, broadcast(encode(t, "ICICIB", "Credit alert", 1700000000000)))
	assert.Equal(t, Summary{Received: 1, Matched: 1, Stored: 1}, sum)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReceive_IdleHubNotCountedAsEmitted(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newListener(t)
	hub := events.NewHub(zerolog.Nop())
	defer hub.Close()
	l.Attach(hub)

	sum := l.Receive(ctx, broadcast(encode(t, "HDFCBank", "Rs.500 debited from your account", 1700000000000)))
	assert.Equal(t, Summary{Received: 1, Matched: 1, Stored: 1}, sum)
}

func TestReceive_ConcurrentBroadcasts(t *testing.T) {
	ctx := context.Background()
	l, s, _ := newListener(t)
	l.Attach(events.Fanout{&recorder{}})

	raws := make([][]byte, 20)
	for i := range raws {
		raws[i] = encode(t, "HDFCBK", "Debit alert", 1700000000000+int64(i)*1000)
	}

	var wg sync.WaitGroup
	for _, raw := range raws {
		wg.Add(1)
		go func(raw []byte) {
			defer wg.Done()
			l.Receive(ctx, broadcast(raw))
		}(raw)
	}
	wg.Wait()

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
