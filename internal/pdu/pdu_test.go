package pdu

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sms"
	"github.com/warthog618/sms/encoding/tpdu"

	"sms-bridge/internal/apperr"
)

func TestDecode_ReferenceVector(t *testing.T) {
	raw, err := hex.DecodeString("07917283010010F5040BC87238880900F10000993092516195800AE8329BFD4697D9EC37")
	require.NoError(t, err)

	msg, err := Decode(raw)
	require.NoError(t, err)

	want := time.Date(1999, 3, 29, 15, 16, 59, 0, time.FixedZone("", 2*3600)).UnixMilli()
	assert.Equal(t, "27838890001", msg.Sender)
	assert.Equal(t, "hellohello", msg.Body)
	assert.Equal(t, want, msg.Timestamp)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000000).UTC()

	tests := []struct {
		name   string
		sender string
		body   string
	}{
		{"alphanumeric sender", "HDFCBank", "Rs.500 debited from your account"},
		{"international number", "+919876543210", "UPI txn of Rs 20 successful"},
		{"national number", "12345", "odd digit count"},
		{"extension characters", "AX-KOTAK", "Offer {50%} [today] ~ only 10€ \\ ^|"},
		{"ucs2 body", "VM-ICICI", "₹500 डेबिट किया गया"},
		{"quotes and newlines", "SBI", "He said \"hi\"\nnext line"},
		{"eleven char sender", "ABCDEFGHIJK", "max alphanumeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeDeliver(tt.sender, tt.body, at)
			require.NoError(t, err)

			msg, err := NewDecoder().Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.sender, msg.Sender)
			assert.Equal(t, tt.body, msg.Body)
			assert.Equal(t, int64(1700000000000), msg.Timestamp)
		})
	}
}

func TestEncodeDecode_TimezoneOffset(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	at := time.Date(2024, 2, 29, 23, 45, 10, 0, ist)

	raw, err := EncodeDeliver("HDFCBK", "Balance alert", at)
	require.NoError(t, err)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), msg.Timestamp)

	west := time.FixedZone("", -3*3600)
	at = time.Date(2024, 1, 2, 3, 4, 5, 0, west)
	raw, err = EncodeDeliver("HDFCBK", "Balance alert", at)
	require.NoError(t, err)
	msg, err = Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), msg.Timestamp)
}

func TestDecode_TruncatedInput(t *testing.T) {
	raw, err := EncodeDeliver("HDFCBank", "Rs.500 debited", time.Unix(1700000000, 0))
	require.NoError(t, err)

	for n := 0; n < len(raw); n++ {
		_, err := Decode(raw[:n])
		require.Error(t, err, "prefix of %d bytes", n)
		assert.ErrorIs(t, err, apperr.ErrDecode)
	}
}

func TestDecode_RejectsSubmit(t *testing.T) {
	raw, err := EncodeDeliver("HDFCBank", "x", time.Unix(1700000000, 0))
	require.NoError(t, err)
	raw[1] = 0x01

	_, err = Decode(raw)
	assert.ErrorIs(t, err, apperr.ErrDecode)
}

// scts encodes 2023-11-14 22:13:20 UTC.
var scts = []byte{0x32, 0x11, 0x41, 0x22, 0x31, 0x02, 0x00}

func TestDecode_UCS2WithHeader(t *testing.T) {
	raw := []byte{0x00, 0x44, 0x04, 0x81, 0x21, 0x43, 0x00, 0x08}
	raw = append(raw, scts...)
	raw = append(raw, 0x0A, 0x05, 0x00, 0x03, 0x01, 0x02, 0x01, 0x00, 0x48, 0x00, 0x69)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "1234", msg.Sender)
	assert.Equal(t, "Hi", msg.Body)
	assert.Equal(t, int64(1700000000000), msg.Timestamp)
}

func TestDecode_EightBitInvalidUTF8(t *testing.T) {
	raw := []byte{0x00, 0x04, 0x04, 0x81, 0x21, 0x43, 0x00, 0x04}
	raw = append(raw, scts...)
	raw = append(raw, 0x03, 'A', 0xFF, 'B')

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(msg.Body))
	assert.Equal(t, "A\uFFFDB", msg.Body)
}

func TestDecode_ConcatenatedSegment(t *testing.T) {
	long := "ATM withdrawal " + strings.Repeat("of Rs 500 ", 20)
	segments, err := sms.Encode([]byte(long), sms.AsDeliver)
	require.NoError(t, err)
	require.Greater(t, len(segments), 1)

	seg := segments[0]
	seg.OA = tpdu.Address{TOA: 0x81, Addr: "1234"}
	tp, err := seg.MarshalBinary()
	require.NoError(t, err)

	msg, err := Decode(append([]byte{0x00}, tp...))
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Body)
	assert.True(t, strings.HasPrefix(long, msg.Body), "header must not leak into body: %q", msg.Body)
}

func TestEncodeDeliver_Limits(t *testing.T) {
	_, err := EncodeDeliver("HDFC", strings.Repeat("a", 161), time.Now())
	assert.Error(t, err)

	_, err = EncodeDeliver("", "body", time.Now())
	assert.Error(t, err)

	_, err = EncodeDeliver("ABCDEFGHIJKL", "body", time.Now())
	assert.Error(t, err)
}
