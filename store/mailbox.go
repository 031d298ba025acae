package store

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Constants

// Integer counter for mailbox view directions.
const (
	DirectionReceived Direction = iota
	DirectionSent
)

// Variables

var (
	// ErrMailboxExists is returned when a mailbox is
	// initialized twice for the same username.
	ErrMailboxExists = errors.New("mailbox already initialized")

	// ErrUnknownRecipient is returned when a message is
	// sent to a username without a mailbox.
	ErrUnknownRecipient = errors.New("recipient has no mailbox")

	// ErrMessageNotFound is returned when no message with
	// the requested ID is visible to the requesting user.
	ErrMessageNotFound = errors.New("message not found")
)

// Structs

// Direction selects one of the two views of a mailbox.
type Direction int

// Message is one mail item. The same logical message is
// visible in the sender's sent view and the recipient's
// received view; flipping Read is observable from both.
type Message struct {
	ID        int64
	Sender    string
	Recipient string
	Subject   string
	Body      string
	SentAt    time.Time
	Read      bool
}

// mailbox holds the two views of one account. Both slices
// reference shared message records, appended in send order.
type mailbox struct {
	received []*Message
	sent     []*Message
}

// MailboxStore owns all messages of a smail node. One lock
// guards ID allocation and both view appends, so IDs are
// allocated without duplicates and a sent message becomes
// visible to sender and recipient simultaneously.
type MailboxStore struct {
	lock   sync.RWMutex
	nextID int64
	boxes  map[string]*mailbox
}

// Functions

// NewMailboxStore returns an initialized,
// empty mailbox store.
func NewMailboxStore() *MailboxStore {

	return &MailboxStore{
		boxes: make(map[string]*mailbox),
	}
}

// Init creates an empty mailbox for a freshly registered
// account. It fails with ErrMailboxExists if one is
// already present, guarding against double initialization
// on duplicate registration attempts.
func (s *MailboxStore) Init(username string) error {

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, found := s.boxes[username]; found {
		return ErrMailboxExists
	}

	s.boxes[username] = &mailbox{}

	return nil
}

// Send creates a new message from sender to recipient. It
// fails with ErrInvalidInput if any field is empty and with
// ErrUnknownRecipient if either party has no mailbox. The
// new message receives the next monotonic ID and appears in
// the sender's sent view and the recipient's received view
// under the same lock, leaving no window where only one
// view contains it.
func (s *MailboxStore) Send(sender string, recipient string, subject string, body string) (Message, error) {

	if sender == "" || recipient == "" || subject == "" || body == "" {
		return Message{}, ErrInvalidInput
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	senderBox, found := s.boxes[sender]
	if !found {
		return Message{}, ErrUnknownRecipient
	}

	recipientBox, found := s.boxes[recipient]
	if !found {
		return Message{}, ErrUnknownRecipient
	}

	s.nextID++

	msg := &Message{
		ID:        s.nextID,
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	}

	senderBox.sent = append(senderBox.sent, msg)
	recipientBox.received = append(recipientBox.received, msg)

	return *msg, nil
}

// ListReceived returns all messages received by username
// in send order, as value copies snapshotting the read
// flag at call time.
func (s *MailboxStore) ListReceived(username string) []Message {

	s.lock.RLock()
	defer s.lock.RUnlock()

	box, found := s.boxes[username]
	if !found {
		return nil
	}

	return copyMessages(box.received)
}

// ListSent returns all messages sent by username in
// send order.
func (s *MailboxStore) ListSent(username string) []Message {

	s.lock.RLock()
	defer s.lock.RUnlock()

	box, found := s.boxes[username]
	if !found {
		return nil
	}

	return copyMessages(box.sent)
}

// Read returns the message with the supplied ID if it is
// visible to username as recipient or sender, and fails
// with ErrMessageNotFound otherwise. The lookup is scoped
// to the requesting user's own views, never global. When
// the recipient reads an unread message, the read flag
// flips to true as a side effect visible from both views;
// re-reading is idempotent. A sender reading its own copy
// never flips the flag.
func (s *MailboxStore) Read(id int64, username string) (Message, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	box, found := s.boxes[username]
	if !found {
		return Message{}, ErrMessageNotFound
	}

	for _, msg := range box.received {
		if msg.ID == id {
			msg.Read = true
			return *msg, nil
		}
	}

	for _, msg := range box.sent {
		if msg.ID == id {
			return *msg, nil
		}
	}

	return Message{}, ErrMessageNotFound
}

// Search returns the messages in the requested view of
// username whose subject contains substr as a literal,
// case-sensitive substring, in send order.
func (s *MailboxStore) Search(username string, direction Direction, substr string) []Message {

	s.lock.RLock()
	defer s.lock.RUnlock()

	box, found := s.boxes[username]
	if !found {
		return nil
	}

	view := box.received
	if direction == DirectionSent {
		view = box.sent
	}

	matches := make([]Message, 0, len(view))
	for _, msg := range view {
		if strings.Contains(msg.Subject, substr) {
			matches = append(matches, *msg)
		}
	}

	return matches
}

// copyMessages snapshots a view into value copies.
func copyMessages(view []*Message) []Message {

	msgs := make([]Message, len(view))
	for i, msg := range view {
		msgs[i] = *msg
	}

	return msgs
}
