package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_ResolvesUser(t *testing.T) {
	raw, err := IssueToken(31, "s3cret", time.Hour)
	require.NoError(t, err)

	id, err := NewToken(raw, "s3cret").CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(31), id)
}

func TestToken_Rejects(t *testing.T) {
	valid, err := IssueToken(31, "s3cret", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(31, "s3cret", -time.Minute)
	require.NoError(t, err)
	anonymous, err := IssueToken(0, "s3cret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		secret  string
		wantErr error
	}{
		{"empty", "", "s3cret", ErrNoCurrentUser},
		{"wrong secret", valid, "other", ErrInvalidToken},
		{"expired", expired, "s3cret", ErrInvalidToken},
		{"garbage", "not.a.token", "s3cret", ErrInvalidToken},
		{"no user", anonymous, "s3cret", ErrNoCurrentUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToken(tt.raw, tt.secret).CurrentUserID(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
