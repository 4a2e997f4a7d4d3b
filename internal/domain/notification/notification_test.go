package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_NotifyFillsDefaults(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	log := NewLog()
	log.now = func() time.Time { return fixed }

	toast := log.Notify(Toast{Title: "Rating submitted"})

	assert.NotEqual(t, uuid.Nil, toast.ID)
	assert.Equal(t, VariantDefault, toast.Variant)
	assert.Equal(t, fixed, toast.CreatedAt)
	assert.False(t, toast.Read)
	assert.Equal(t, 1, log.UnreadCount())
}

func TestLog_MarkRead(t *testing.T) {
	log := NewLog()
	first := log.Notify(Toast{Title: "Pickup scheduled"})
	second := log.Notify(Toast{Title: "Failed to submit rating", Variant: VariantDestructive})

	require.NoError(t, log.MarkRead(first.ID))
	assert.Equal(t, 1, log.UnreadCount())

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Read)
	assert.False(t, entries[1].Read)
	assert.Equal(t, second.ID, entries[1].ID)

	assert.ErrorIs(t, log.MarkRead(uuid.New()), ErrNotificationNotFound)
}

func TestLog_EntriesIsACopy(t *testing.T) {
	log := NewLog()
	log.Notify(Toast{Title: "one"})

	entries := log.Entries()
	entries[0].Title = "mutated"

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, "one", last.Title)
}

func TestLog_LastOnEmpty(t *testing.T) {
	_, ok := NewLog().Last()
	assert.False(t, ok)
}
