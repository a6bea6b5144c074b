package events

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-bridge/internal/models"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws, func() {
		ws.Close()
		srv.Close()
	}
}

func TestNewSMSReceived(t *testing.T) {
	before := time.Now().UnixMilli()
	e := NewSMSReceived("HDFCBank", "Rs.500 debited from your account", 1700000000000)

	assert.Equal(t, models.EventSMSReceived, e.Name)
	assert.Equal(t, models.EventPayload{
		Sender:    "HDFCBank",
		Body:      "Rs.500 debited from your account",
		Timestamp: 1700000000000,
	}, e.Payload)
	assert.GreaterOrEqual(t, e.EmittedAt, before)

	_, err := ulid.Parse(e.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, e.ID, NewSMSReceived("a", "b", 1).ID)
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, closeA := dialHub(t, hub)
	defer closeA()
	b, closeB := dialHub(t, hub)
	defer closeB()

	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	want := NewSMSReceived("HDFCBank", "Rs.500 debited from your account", 1700000000000)
	require.NoError(t, hub.Emit(context.Background(), want))

	for _, ws := range []*websocket.Conn{a, b} {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got models.Event
		require.NoError(t, ws.ReadJSON(&got))
		assert.Equal(t, want, got)
	}
}

func TestHub_ForgetsClosedSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	_, closeConn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	closeConn()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, hub.Emit(context.Background(), NewSMSReceived("SBI", "credit", 1)), ErrNoSubscribers)
}

func TestHub_EmitWithoutSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.ErrorIs(t, hub.Emit(context.Background(), NewSMSReceived("SBI", "credit", 1)), ErrNoSubscribers)
	assert.NoError(t, hub.Close())
}

func TestFanout(t *testing.T) {
	var got []string
	ok := EmitterFunc(func(ctx context.Context, e models.Event) error {
		got = append(got, e.Payload.Sender)
		return nil
	})
	boom := errors.New("boom")
	failing := EmitterFunc(func(ctx context.Context, e models.Event) error {
		return boom
	})

	err := Fanout{ok, nil, failing, ok}.Emit(context.Background(), NewSMSReceived("AXIS", "debit", 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"AXIS", "AXIS"}, got)

	assert.NoError(t, Fanout{}.Emit(context.Background(), NewSMSReceived("AXIS", "debit", 1)))

	idle := EmitterFunc(func(ctx context.Context, e models.Event) error {
		return ErrNoSubscribers
	})
	assert.NoError(t, Fanout{idle, ok}.Emit(context.Background(), NewSMSReceived("AXIS", "debit", 1)))
	assert.ErrorIs(t, Fanout{idle, nil, idle}.Emit(context.Background(), NewSMSReceived("AXIS", "debit", 1)), ErrNoSubscribers)
	assert.ErrorIs(t, Fanout{idle, failing}.Emit(context.Background(), NewSMSReceived("AXIS", "debit", 1)), boom)
}

func TestRedisPublisher_XAdd(t *testing.T) {
	url := os.Getenv("SMSBRIDGE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SMSBRIDGE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	stream := "smsbridge:test:" + ulid.Make().String()

	p, err := NewRedisPublisher(ctx, url, stream)
	require.NoError(t, err)
	defer p.Close()
	defer p.client.Del(ctx, stream)

	e := NewSMSReceived("HDFCBank", "Rs.500 debited", 1700000000000)
	require.NoError(t, p.Emit(ctx, e))

	msgs, err := p.client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.EventSMSReceived, msgs[0].Values["name"])
	assert.Equal(t, "HDFCBank", msgs[0].Values["sender"])
	assert.Equal(t, "1700000000000", msgs[0].Values["timestamp"])
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "not-a-url", "")
	assert.ErrorContains(t, err, "parse redis url")
}
