// Package identity supplies the authenticated user on whose behalf the
// client acts.
package identity

import (
	"context"
	"errors"
)

var ErrNoCurrentUser = errors.New("no authenticated user")

// Provider returns the current user's id
type Provider interface {
	CurrentUserID(ctx context.Context) (int64, error)
}

// Static is a Provider for a fixed user id, typically read from config
type Static int64

// CurrentUserID implements Provider
func (s Static) CurrentUserID(context.Context) (int64, error) {
	if s <= 0 {
		return 0, ErrNoCurrentUser
	}
	return int64(s), nil
}
