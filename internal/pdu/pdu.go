// Package pdu adapts github.com/warthog618/sms to the broadcast listener:
// raw SMS-DELIVER PDUs, as handed over by the telephony layer with their
// leading SMSC information block, become plain messages.
//
// Every decode failure wraps apperr.ErrDecode.
package pdu

import (
	"fmt"
	"strings"

	"github.com/warthog618/sms"
	"github.com/warthog618/sms/encoding/pdumode"
	"github.com/warthog618/sms/encoding/tpdu"

	"sms-bridge/internal/apperr"
)

const (
	mtiMask    = 0x03
	mtiDeliver = 0x00

	tonInternational = 0x01
	tonAlphanumeric  = 0x05
)

// Message is the decoded content of one SMS-DELIVER PDU
type Message struct {
	Sender    string
	Body      string
	Timestamp int64 // epoch millis
}

// Decoder decodes raw PDUs
type Decoder struct{}

// NewDecoder creates a new Decoder instance
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a single PDU
func (d *Decoder) Decode(raw []byte) (Message, error) {
	return Decode(raw)
}

func decodeErr(err error, step string) error {
	return fmt.Errorf("pdu: %s: %v: %w", step, err, apperr.ErrDecode)
}

// Decode parses an SMS-DELIVER PDU prefixed with its SMSC information
func Decode(raw []byte) (Message, error) {
	if len(raw) == 0 {
		return Message{}, fmt.Errorf("pdu: empty input: %w", apperr.ErrDecode)
	}

	p, err := pdumode.UnmarshalBinary(raw)
	if err != nil {
		return Message{}, decodeErr(err, "smsc block")
	}
	if len(p.TPDU) == 0 {
		return Message{}, fmt.Errorf("pdu: missing tpdu: %w", apperr.ErrDecode)
	}
	if mti := p.TPDU[0] & mtiMask; mti != mtiDeliver {
		return Message{}, fmt.Errorf("pdu: unsupported message type indicator %d: %w", mti, apperr.ErrDecode)
	}

	t, err := sms.Unmarshal(p.TPDU)
	if err != nil {
		return Message{}, decodeErr(err, "tpdu")
	}
	body, err := sms.Decode([]*tpdu.TPDU{t})
	if err != nil {
		return Message{}, decodeErr(err, "user data")
	}

	return Message{
		Sender: senderOf(t.OA),
		// 8-bit data is not guaranteed to be UTF-8.
		Body:      strings.ToValidUTF8(string(body), "\uFFFD"),
		Timestamp: t.SCTS.Time.UnixMilli(),
	}, nil
}

func senderOf(a tpdu.Address) string {
	if (a.TOA>>4)&0x07 == tonInternational && !strings.HasPrefix(a.Addr, "+") {
		return "+" + a.Addr
	}
	return a.Addr
}
