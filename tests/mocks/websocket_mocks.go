package mocks

import (
	"sync"

	"github.com/elektrine/mailroute/internal/websocket"
)

// NotificationRecord is one broadcast captured by RecordingNotifier.
type NotificationRecord struct {
	MailboxID uint
	Payload   *websocket.NewMessagePayload
}

// RecordingNotifier implements websocket.Notifier and captures every
// broadcast so tests can assert which mailboxes were notified without
// running a real hub.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []NotificationRecord
}

// NewRecordingNotifier creates an empty RecordingNotifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// BroadcastNewMessage records the notification instead of delivering it.
func (r *RecordingNotifier) BroadcastNewMessage(mailboxID uint, payload *websocket.NewMessagePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, NotificationRecord{
		MailboxID: mailboxID,
		Payload:   payload,
	})
}

// Notifications returns a copy of everything recorded so far.
func (r *RecordingNotifier) Notifications() []NotificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationRecord, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// ForMailbox returns the notifications recorded for one mailbox.
func (r *RecordingNotifier) ForMailbox(mailboxID uint) []NotificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []NotificationRecord
	for _, n := range r.notifications {
		if n.MailboxID == mailboxID {
			out = append(out, n)
		}
	}
	return out
}

// Reset discards all recorded notifications.
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
