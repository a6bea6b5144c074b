package pdu

import (
	"fmt"
	"strings"
	"time"

	"github.com/warthog618/sms"
	"github.com/warthog618/sms/encoding/tpdu"
)

const maxAlphanumeric = 11

// EncodeDeliver builds a single-part SMS-DELIVER PDU with an empty SMSC block.
// Bodies that fit the GSM default alphabet are sent as 7-bit, others as UCS-2.
func EncodeDeliver(sender, body string, at time.Time) ([]byte, error) {
	oa, err := originatingAddress(sender)
	if err != nil {
		return nil, err
	}

	// SCTS carries the zone in quarter hours.
	if _, offset := at.Zone(); offset%(15*60) != 0 {
		at = at.UTC()
	}

	segments, err := sms.Encode([]byte(body), sms.AsDeliver)
	if err != nil {
		return nil, fmt.Errorf("pdu: encode body: %w", err)
	}
	if len(segments) != 1 {
		return nil, fmt.Errorf("pdu: body needs %d segments, only single-part messages are supported", len(segments))
	}

	seg := segments[0]
	seg.OA = oa
	seg.SCTS = tpdu.Timestamp{Time: at}
	tp, err := seg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("pdu: marshal tpdu: %w", err)
	}
	return append([]byte{0x00}, tp...), nil
}

func isNumeric(s string) bool {
	digits := strings.TrimPrefix(s, "+")
	if digits == "" || len(digits) > 20 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func originatingAddress(sender string) (tpdu.Address, error) {
	switch {
	case sender == "":
		return tpdu.Address{}, fmt.Errorf("pdu: sender is required")
	case isNumeric(sender) && strings.HasPrefix(sender, "+"):
		return tpdu.Address{TOA: 0x80 | tonInternational<<4 | 0x01, Addr: sender[1:]}, nil
	case isNumeric(sender):
		return tpdu.Address{TOA: 0x81, Addr: sender}, nil
	case len([]rune(sender)) > maxAlphanumeric:
		return tpdu.Address{}, fmt.Errorf("pdu: sender %q longer than %d characters", sender, maxAlphanumeric)
	default:
		return tpdu.Address{TOA: 0x80 | tonAlphanumeric<<4, Addr: sender}, nil
	}
}
