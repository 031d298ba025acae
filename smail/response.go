package smail

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-smail/smaild/store"
)

// Constants

// Status tokens of the smail wire protocol. Every response
// line starts with exactly one of these.
const (
	StatusSuccess            = "SUCCESS"
	StatusInvalid            = "INVALID"
	StatusUserAlreadyExists  = "USER_ALREADY_EXISTS"
	StatusPasswordsMismatch  = "PASSWORDS_DOESNT_MATCH"
	StatusInvalidCredentials = "INVALID_USERNAME_OR_PASSWORD"
	StatusUserAlreadyLogged  = "USER_ALREADY_LOGGED"
	StatusUserNotLoggedIn    = "USER_NOT_LOGGED_IN"
	StatusResourceNotFound   = "RESOURCE_NOT_FOUND"
	StatusRecipientNotFound  = "RECIPIENT_NOT_FOUND"
	StatusNoEmailsFound      = "NO_EMAILS_FOUND"
)

// Functions

// FormatMessage serializes one message record as
// id%%sender%%recipient%%subject%%body%%sentAt%%isRead
// with the timestamp in RFC 3339 UTC.
func FormatMessage(msg store.Message) string {

	fields := []string{
		strconv.FormatInt(msg.ID, 10),
		msg.Sender,
		msg.Recipient,
		msg.Subject,
		msg.Body,
		msg.SentAt.UTC().Format(time.RFC3339),
		strconv.FormatBool(msg.Read),
	}

	return strings.Join(fields, FieldDelimiter)
}

// FormatSingle serializes the response for a single
// message result: the success token followed by the
// record, field-delimited.
func FormatSingle(msg store.Message) string {
	return StatusSuccess + FieldDelimiter + FormatMessage(msg)
}

// FormatList serializes the response for a list result:
// the success token followed by one record per message,
// all joined with the record delimiter.
func FormatList(msgs []store.Message) string {

	parts := make([]string, 0, len(msgs)+1)
	parts = append(parts, StatusSuccess)

	for _, msg := range msgs {
		parts = append(parts, FormatMessage(msg))
	}

	return strings.Join(parts, RecordDelimiter)
}

// ParseDirection maps a wire direction field onto the
// mailbox view it selects.
func ParseDirection(raw string) (store.Direction, bool) {

	switch raw {
	case "RECEIVED":
		return store.DirectionReceived, true
	case "SENT":
		return store.DirectionSent, true
	default:
		return 0, false
	}
}
