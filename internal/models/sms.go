package models

import (
	"encoding/xml"
	"strconv"
)

// SMSReceivedAction is the broadcast action carried by incoming SMS deliveries
const SMSReceivedAction = "android.provider.Telephony.SMS_RECEIVED"

// EventSMSReceived is the name of the real-time event emitted for matching messages
const EventSMSReceived = "SMSReceived"

// Message type values used by the telephony inbox
const (
	TypeReceived = 1
	TypeSent     = 2
)

// Record is a bank SMS captured by the broadcast listener
type Record struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// NewRecord builds a record with an ID derived from sender and timestamp
func NewRecord(sender, body string, timestamp int64) Record {
	return Record{
		ID:        RecordID(sender, timestamp),
		Sender:    sender,
		Body:      body,
		Timestamp: timestamp,
	}
}

// RecordID returns the identifier used for a record from sender at timestamp
func RecordID(sender string, timestamp int64) string {
	return "sms_" + sender + "_" + strconv.FormatInt(timestamp, 10)
}

// Stored returns the shape handed back to the host when draining the store
func (r Record) Stored() StoredSMS {
	return StoredSMS{Sender: r.Sender, Body: r.Body, Timestamp: r.Timestamp}
}

// StoredSMS is a stored record as seen by the host application
type StoredSMS struct {
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// InboxMessage is one row of the device inbox
type InboxMessage struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Type      int    `json:"type"`
}

// EventPayload is the payload of an SMSReceived event
type EventPayload struct {
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

// Event is a real-time notification delivered to the host
type Event struct {
	Name      string       `json:"name"`
	ID        string       `json:"id"`
	Payload   EventPayload `json:"payload"`
	EmittedAt int64        `json:"emitted_at"`
}

// Broadcast is one delivery of raw PDUs from the telephony layer
type Broadcast struct {
	Action string
	PDUs   [][]byte
}

// SMS represents a single SMS message from the XML backup
type SMS struct {
	Address string `xml:"address,attr"`
	Body    string `xml:"body,attr"`
	Date    string `xml:"date,attr"`
	Type    string `xml:"type,attr"`
}

// SMSBackup represents the root of the XML document
type SMSBackup struct {
	XMLName xml.Name `xml:"smses"`
	SMS     []SMS    `xml:"sms"`
}
