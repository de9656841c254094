// Package queue defines the message payloads exchanged over the broker and
// the background consumer that stands in for a real SMS/email gateway.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Delivery channels and code purposes carried on OTPIssuedEvent.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	PurposeLogin = "login"
	PurposeReset = "reset"
)

// OTPIssuedEvent is published whenever the core attaches a one-time code to
// a user. Downstream consumers deliver the code out-of-band; the HTTP
// response never carries it outside of sandbox mode.
type OTPIssuedEvent struct {
	EventID   string `json:"event_id"`
	Channel   string `json:"channel"`   // sms | email
	Recipient string `json:"recipient"` // phone number or email address
	Code      string `json:"code"`
	Purpose   string `json:"purpose"` // login | reset
	ExpiresAt string `json:"expires_at"`
	IssuedAt  string `json:"issued_at"`
}

// NewOTPIssuedEvent assembles an event with a fresh ID and RFC3339
// timestamps.
func NewOTPIssuedEvent(channel, recipient, code, purpose string, expiresAt time.Time) OTPIssuedEvent {
	return OTPIssuedEvent{
		EventID:   uuid.NewString(),
		Channel:   channel,
		Recipient: recipient,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
