package notification

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Variant selects how a toast is rendered
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Toast is a transient user-facing message
type Toast struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier is the toast surface used for success and failure feedback
type Notifier interface {
	Notify(t Toast) Toast
}

// Log is an append-only notification list. Entries are never removed; the
// only transition is MarkRead.
type Log struct {
	mu      sync.RWMutex
	entries []Toast
	now     func() time.Time
}

// NewLog creates an empty notification log
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Notify appends a toast, filling in the id, variant and creation time
func (l *Log) Notify(t Toast) Toast {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Variant == "" {
		t.Variant = VariantDefault
	}
	t.Read = false

	l.mu.Lock()
	defer l.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now()
	}
	l.entries = append(l.entries, t)
	return t
}

// MarkRead flags a toast as read
func (l *Log) MarkRead(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

// Entries returns a copy of all toasts in insertion order
func (l *Log) Entries() []Toast {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Toast, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent toast
func (l *Log) Last() (Toast, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Toast{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// UnreadCount returns the number of toasts not yet marked read
func (l *Log) UnreadCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, t := range l.entries {
		if !t.Read {
			n++
		}
	}
	return n
}
