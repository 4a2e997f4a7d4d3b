// Command tracker follows the assigned driver of one pickup and can rate
// them once the pickup is done.
//
//	tracker -pickup 42 -driver 7 -duration 30s
//	tracker -pickup 42 -driver 7 -duration 10s -rate 4 -review "Friendly and on time"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluecycle/bluecycle/internal/client"
	"github.com/bluecycle/bluecycle/internal/config"
	"github.com/bluecycle/bluecycle/internal/domain/notification"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	"github.com/bluecycle/bluecycle/internal/identity"
	ratingsvc "github.com/bluecycle/bluecycle/internal/service/rating"
	trackingsvc "github.com/bluecycle/bluecycle/internal/service/tracking"
	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/bluecycle/bluecycle/pkg/monitoring"
)

func main() {
	pickupID := flag.Int64("pickup", 0, "pickup id to track")
	driverID := flag.Int64("driver", 0, "assigned driver id")
	duration := flag.Duration("duration", 0, "stop tracking after this long (0 runs until interrupted)")
	stars := flag.Int("rate", 0, "rate the driver 1-5 after tracking stops (0 skips rating)")
	review := flag.String("review", "", "optional review sent with the rating")
	userID := flag.Int64("user", 0, "current user id (defaults to CURRENT_USER_TOKEN, then CURRENT_USER_ID)")
	flag.Parse()

	if *pickupID <= 0 || *driverID <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *userID > 0 {
		cfg.Client.CurrentUserID = *userID
	}

	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName + "-tracker",
		Enabled:    cfg.NewRelic.Enabled,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = monitoring.Disabled()
	}
	defer nrApp.Shutdown(5 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := client.New(client.Config{BaseURL: cfg.Client.BaseURL, Timeout: cfg.Client.Timeout}, appLogger)
	if err != nil {
		appLogger.Fatal("Invalid API client configuration", logger.Err(err))
	}

	profile, err := api.GetProfile(ctx, *driverID)
	if err != nil {
		appLogger.Fatal("Failed to load driver profile", logger.Int64("driver_id", *driverID), logger.Err(err))
	}

	poller := trackingsvc.NewPoller(api, appLogger, trackingsvc.Config{
		PollInterval:   cfg.Tracking.PollInterval,
		RequestTimeout: cfg.Tracking.RequestTimeout,
	}, trackingsvc.WithRecorder(monitoring.FetchRecorder{}))

	session, err := poller.Start(ctx, *pickupID, *profile)
	if err != nil {
		appLogger.Fatal("Failed to start tracking", logger.Err(err))
	}
	follow(ctx, session, *duration)

	if *stars == 0 {
		return
	}

	var currentUser identity.Provider = identity.Static(cfg.Client.CurrentUserID)
	if cfg.Client.UserToken != "" && *userID == 0 {
		currentUser = identity.NewToken(cfg.Client.UserToken, cfg.Client.JWTSecret)
	}

	toasts := notification.NewLog()
	dialog := ratingsvc.NewDialog(api, currentUser, toasts, appLogger, *pickupID, *driverID,
		ratingsvc.WithRecorder(nrApp),
		ratingsvc.WithOnComplete(func(result *rating.Result) {
			refreshed, err := api.GetProfile(context.Background(), *driverID)
			if err != nil {
				appLogger.Warn("Failed to refresh driver profile", logger.Err(err))
				return
			}
			fmt.Printf("%s is now rated %.1f / 5\n", refreshed.Name, refreshed.AverageRating)
		}),
	)

	dialog.Open()
	if !dialog.SetStars(*stars) {
		fmt.Fprintf(os.Stderr, "rating must be between %d and %d\n", rating.MinStars, rating.MaxStars)
		os.Exit(2)
	}
	dialog.SetReview(*review)

	submitCtx, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout)
	defer cancel()
	err = dialog.Submit(submitCtx)

	for _, toast := range toasts.Entries() {
		printToast(toast)
		_ = toasts.MarkRead(toast.ID)
	}
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			appLogger.Debug("Ratings endpoint rejected submission", logger.Int("status", statusErr.StatusCode))
		}
		os.Exit(1)
	}
}

// follow prints the session view on every update until ctx ends or the
// duration elapses, then stops the session.
func follow(ctx context.Context, session *trackingsvc.Session, duration time.Duration) {
	defer session.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	updates := session.Updates()
	printSnapshot(session.Snapshot())
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			printSnapshot(snap)
		case <-deadline:
			return
		case <-ctx.Done():
			return
		}
	}
}

func printSnapshot(snap tracking.Snapshot) {
	fmt.Printf("\n[%s] pickup %d\n%s\n", time.Now().Format(time.Kitchen), snap.PickupID, trackingsvc.Render(snap, time.Now()))
}

func printToast(t notification.Toast) {
	prefix := "*"
	if t.Variant == notification.VariantDestructive {
		prefix = "!"
	}
	if t.Description == "" {
		fmt.Printf("%s %s\n", prefix, t.Title)
		return
	}
	fmt.Printf("%s %s: %s\n", prefix, t.Title, t.Description)
}
