package rating

import "errors"

var (
	ErrInvalidStars       = errors.New("please select a rating between 1 and 5 stars")
	ErrInvalidPickupID    = errors.New("invalid pickup id")
	ErrInvalidDriverID    = errors.New("invalid driver id")
	ErrMissingRater       = errors.New("current user is unknown")
	ErrSubmissionInFlight = errors.New("rating submission already in progress")
	ErrDialogClosed       = errors.New("rating dialog is closed")
	ErrSubmissionRejected = errors.New("rating submission rejected")
)
