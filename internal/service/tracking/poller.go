package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	"github.com/bluecycle/bluecycle/pkg/logger"
)

// Fetch outcomes reported to the Recorder
const (
	OutcomeLive      = "live"
	OutcomeMiss      = "miss"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
)

// Config holds poller configuration
type Config struct {
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Ticker is the subset of time.Ticker the poller depends on
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Recorder receives the outcome and latency of each location fetch
type Recorder interface {
	RecordLocationFetch(outcome string, latency time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordLocationFetch(string, time.Duration) {}

// Option customizes a Poller
type Option func(*Poller)

// WithTicker replaces the wall-clock ticker
func WithTicker(f TickerFunc) Option {
	return func(p *Poller) { p.newTicker = f }
}

// WithRecorder attaches a fetch outcome recorder
func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

// Poller starts tracking sessions that periodically refetch a driver's location
type Poller struct {
	fetcher   tracking.LocationFetcher
	logger    *logger.Logger
	config    Config
	newTicker TickerFunc
	recorder  Recorder
}

// NewPoller creates a new poller. A zero interval falls back to 5s and a
// zero or too long timeout is capped below the interval so consecutive
// requests never overlap.
func NewPoller(fetcher tracking.LocationFetcher, log *logger.Logger, config Config, opts ...Option) *Poller {
	if config.PollInterval <= 0 {
		config.PollInterval = tracking.DefaultPollInterval
	}
	if config.RequestTimeout <= 0 || config.RequestTimeout >= config.PollInterval {
		config.RequestTimeout = config.PollInterval * 3 / 5
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Poller{
		fetcher:   fetcher,
		logger:    log.Named("tracking"),
		config:    config,
		newTicker: newTimeTicker,
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start mounts a tracking session for a pickup. The first fetch is issued
// immediately; further fetches follow every PollInterval until the session
// is stopped or ctx is cancelled.
func (p *Poller) Start(ctx context.Context, pickupID int64, profile driver.Profile) (*Session, error) {
	if pickupID <= 0 {
		return nil, fmt.Errorf("start tracking: %w", tracking.ErrInvalidPickupID)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		pickupID: pickupID,
		profile:  profile,
		fetcher:  p.fetcher,
		timeout:  p.config.RequestTimeout,
		recorder: p.recorder,
		logger: p.logger.With(
			logger.Int64("pickup_id", pickupID),
			logger.Int64("driver_id", profile.ID),
		),
		status:     tracking.StatusLoading,
		active:     true,
		generation: 1,
		cancel:     cancel,
		ticker:     p.newTicker(p.config.PollInterval),
		done:       make(chan struct{}),
	}

	s.logger.Info("Tracking session started",
		logger.Duration("poll_interval", p.config.PollInterval),
	)

	go s.run(ctx)
	return s, nil
}

// ticket tags a request with the session generation and issue order
type ticket struct {
	generation uint64
	seq        uint64
}

// Session is one mounted tracking view. All state is scoped to the session
// and is safe for concurrent use.
type Session struct {
	pickupID int64
	profile  driver.Profile
	fetcher  tracking.LocationFetcher
	timeout  time.Duration
	recorder Recorder
	logger   *logger.Logger

	mu          sync.Mutex
	status      tracking.Status
	lastSample  *tracking.Sample
	active      bool
	generation  uint64
	issued      uint64
	applied     uint64
	subscribers []chan tracking.Snapshot

	cancel context.CancelFunc
	ticker Ticker
	done   chan struct{}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.ticker.C():
			s.poll(ctx)
		}
	}
}

// poll runs one request/response round-trip. It is only called from run, so
// there is never more than one outstanding fetch per session.
func (s *Session) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	t, ok := s.begin()
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	sample, err := s.fetcher.FetchLocation(reqCtx, s.pickupID)
	latency := time.Since(started)

	if err == nil && sample == nil {
		err = tracking.ErrLocationUnavailable
	}
	if err == nil {
		if verr := sample.Validate(); verr != nil {
			err = fmt.Errorf("malformed sample: %w", verr)
		}
	}

	outcome := s.apply(t, sample, err)
	s.recorder.RecordLocationFetch(outcome, latency)
}

func (s *Session) begin() (ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ticket{}, false
	}
	s.issued++
	return ticket{generation: s.generation, seq: s.issued}, true
}

// apply folds a fetch result into the session. Results from a previous
// generation, from a stopped session, or older than the last applied
// result are discarded.
func (s *Session) apply(t ticket, sample *tracking.Sample, err error) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || t.generation != s.generation || t.seq <= s.applied {
		s.logger.Debug("Discarding stale location response",
			logger.Uint64("generation", t.generation),
			logger.Uint64("seq", t.seq),
		)
		return OutcomeDiscarded
	}
	s.applied = t.seq

	outcome := OutcomeLive
	switch {
	case err == nil:
		cp := *sample
		s.lastSample = &cp
		s.status = tracking.StatusLive
	case errors.Is(err, tracking.ErrLocationUnavailable):
		outcome = OutcomeMiss
		s.logger.Debug("No tracking data available", logger.Uint64("seq", t.seq))
	default:
		outcome = OutcomeError
		s.logger.Warn("Failed to fetch driver location",
			logger.Uint64("seq", t.seq),
			logger.Err(err),
		)
	}
	if err != nil && s.lastSample == nil {
		s.status = tracking.StatusUnavailable
	}

	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		offer(ch, snap)
	}
	return outcome
}

// Stop deactivates the session. The ticker is stopped and the in-flight
// request cancelled before Stop returns; a response that still arrives
// afterwards is discarded. Stop is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	s.ticker.Stop()
	s.cancel()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	issued := s.issued
	s.mu.Unlock()

	s.logger.Info("Tracking session stopped", logger.Uint64("requests_issued", issued))
}

// Done is closed once the polling goroutine has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns the current renderable state
func (s *Session) Snapshot() tracking.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Updates returns a channel receiving the latest snapshot after every
// applied fetch. Slow readers only see the newest snapshot. The channel is
// closed when the session stops.
func (s *Session) Updates() <-chan tracking.Snapshot {
	ch := make(chan tracking.Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Session) snapshotLocked() tracking.Snapshot {
	snap := tracking.Snapshot{
		PickupID: s.pickupID,
		Driver:   s.profile,
		Status:   s.status,
		Active:   s.active,
	}
	if s.lastSample != nil {
		cp := *s.lastSample
		snap.LastSample = &cp
	}
	return snap
}

// offer replaces any unread snapshot with the newest one
func offer(ch chan tracking.Snapshot, snap tracking.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
