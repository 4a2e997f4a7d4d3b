package rating

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluecycle/bluecycle/internal/domain/notification"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/identity"
	"github.com/bluecycle/bluecycle/pkg/logger"
)

// Toast titles shown by the dialog
const (
	TitleSelectRating   = "Please select a rating"
	TitleRatingSent     = "Rating submitted successfully"
	TitleRatingNotSent  = "Failed to submit rating"
	descriptionThankYou = "Thank you for your feedback!"
)

// Recorder receives the outcome of each submission that reached the network
type Recorder interface {
	RecordRatingSubmission(stars int, succeeded bool)
}

// Option customizes a Dialog
type Option func(*Dialog)

// WithOnComplete registers a callback fired once per successful submission
func WithOnComplete(fn func(*rating.Result)) Option {
	return func(d *Dialog) { d.onComplete = fn }
}

// WithRecorder attaches a submission recorder
func WithRecorder(r Recorder) Option {
	return func(d *Dialog) { d.recorder = r }
}

// State is the renderable state of the dialog
type State struct {
	Open        bool          `json:"open"`
	Stars       int           `json:"stars"`
	Review      string        `json:"review"`
	Status      rating.Status `json:"status"`
	LastOutcome rating.Status `json:"lastOutcome,omitempty"`
}

// CanSubmit reports whether the submit button is enabled
func (s State) CanSubmit() bool {
	return s.Open && s.Status != rating.StatusSubmitting
}

// Dialog collects a 1-5 star rating with an optional review for one pickup
// and submits it once per confirmation.
type Dialog struct {
	writer     rating.Writer
	identity   identity.Provider
	notifier   notification.Notifier
	logger     *logger.Logger
	recorder   Recorder
	onComplete func(*rating.Result)

	pickupID int64
	driverID int64

	mu          sync.Mutex
	open        bool
	session     uint64
	stars       int
	review      string
	status      rating.Status
	lastOutcome rating.Status
}

// NewDialog creates a closed rating dialog for a pickup's driver
func NewDialog(
	writer rating.Writer,
	provider identity.Provider,
	notifier notification.Notifier,
	log *logger.Logger,
	pickupID, driverID int64,
	opts ...Option,
) *Dialog {
	if log == nil {
		log = logger.Nop()
	}
	d := &Dialog{
		writer:   writer,
		identity: provider,
		notifier: notifier,
		logger: log.Named("rating").With(
			logger.Int64("pickup_id", pickupID),
			logger.Int64("driver_id", driverID),
		),
		pickupID: pickupID,
		driverID: driverID,
		stars:    rating.DefaultStars,
		status:   rating.StatusEditing,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open shows the dialog with default input
func (d *Dialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.session++
	d.resetLocked()
}

// Close hides the dialog and discards any input
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.resetLocked()
}

// SetStars selects a star value. Values outside 1-5 are ignored.
func (d *Dialog) SetStars(n int) bool {
	if !rating.ValidStars(n) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stars = n
	return true
}

// SetReview replaces the free-text review
func (d *Dialog) SetReview(review string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.review = review
}

// State returns the current dialog state
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Open:        d.open,
		Stars:       d.stars,
		Review:      d.review,
		Status:      d.status,
		LastOutcome: d.lastOutcome,
	}
}

// Submit sends the rating. Invalid stars are rejected without a network
// call; a submission already in flight is refused. On success the dialog is
// reset and closed and the completion callback fires; on failure the input
// is kept so the user can retry. A success that lands after Close still shows
// the success toast and fires the completion callback once, since the server
// has stored the rating.
func (d *Dialog) Submit(ctx context.Context) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return rating.ErrDialogClosed
	}
	if d.status == rating.StatusSubmitting {
		d.mu.Unlock()
		return rating.ErrSubmissionInFlight
	}
	if !rating.ValidStars(d.stars) {
		d.status = rating.StatusEditing
		d.mu.Unlock()
		d.notify(TitleSelectRating, "", notification.VariantDestructive)
		return rating.ErrInvalidStars
	}
	d.status = rating.StatusSubmitting
	session := d.session
	stars, review := d.stars, d.review
	d.mu.Unlock()

	result, err := d.send(ctx, stars, review)
	if err != nil {
		d.logger.Warn("Rating submission failed", logger.Int("stars", stars), logger.Err(err))
		d.finish(session, false)
		d.notify(TitleRatingNotSent, err.Error(), notification.VariantDestructive)
		return err
	}

	d.logger.Info("Rating submitted",
		logger.Int("stars", stars),
		logger.Bool("duplicate", result.Duplicate),
		logger.Float64("average_rating", result.AverageRating),
	)
	d.finish(session, true)
	d.notify(TitleRatingSent, descriptionThankYou, notification.VariantDefault)
	if d.onComplete != nil {
		d.onComplete(result)
	}
	return nil
}

func (d *Dialog) send(ctx context.Context, stars int, review string) (*rating.Result, error) {
	userID, err := d.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	sub := rating.Submission{
		PickupID:    d.pickupID,
		DriverID:    d.driverID,
		RaterUserID: userID,
		Stars:       stars,
		Review:      rating.NormalizeReview(review),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if d.recorder != nil {
		defer func() { d.recorder.RecordRatingSubmission(stars, err == nil) }()
	}
	result, err := d.writer.SubmitRating(ctx, sub)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &rating.Result{}
	}
	return result, nil
}

// finish settles the dialog after a round-trip. If the dialog was closed or
// reopened meanwhile, only the outcome is recorded.
func (d *Dialog) finish(session uint64, succeeded bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if succeeded {
		d.lastOutcome = rating.StatusSucceeded
	} else {
		d.lastOutcome = rating.StatusFailed
	}
	if session != d.session || !d.open {
		return
	}
	if succeeded {
		d.resetLocked()
		d.open = false
		return
	}
	d.status = rating.StatusEditing
}

func (d *Dialog) resetLocked() {
	d.stars = rating.DefaultStars
	d.review = ""
	d.status = rating.StatusEditing
}

func (d *Dialog) notify(title, description string, variant notification.Variant) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify(notification.Toast{Title: title, Description: description, Variant: variant})
}
