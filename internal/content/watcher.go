package content

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/keithlinneman/yummigo-web/internal/log"
)

const (
	DefaultPollInterval = 30 * time.Second

	// maxBackoff caps exponential backoff on consecutive store errors.
	maxBackoff = 5 * time.Minute
)

type pollResult int

const (
	pollNoChange pollResult = iota
	pollSwapped
	pollFetchError   // store unreachable, back off
	pollInvalidError // store answered with a document we refuse to serve
)

// Refresher reloads the store and swaps a changed document in. Service
// implements it.
type Refresher interface {
	Refresh(ctx context.Context) (swapped bool, hash string, err error)
}

// WatcherMetrics is implemented by the metrics package.
type WatcherMetrics interface {
	IncWatcherPolls()
	IncWatcherSwaps()
	IncWatcherError(errType string)
	ObserveContentLoad(d time.Duration)
	SetWatcherLastSuccess(t time.Time)
	SetWatcherStale(stale bool)
}

type WatcherOptions struct {
	Logger       log.Logger
	Source       Refresher
	PollInterval time.Duration

	// OnSwap runs on the poll goroutine after a changed document is
	// activated.
	OnSwap func(hash string)

	Metrics WatcherMetrics

	// StaleThreshold is how long without a successful poll before the
	// watcher reports stale. Zero means 30 minutes.
	StaleThreshold time.Duration
}

// Watcher picks up documents saved by other instances.
type Watcher struct {
	source   Refresher
	logger   log.Logger
	interval time.Duration
	onSwap   func(hash string)
	metrics  WatcherMetrics

	consecutiveErrs int

	staleThreshold time.Duration
	lastSuccessAt  time.Time
	staleLogged    bool

	pollCount int64
	swapCount int64

	now func() time.Time
}

func NewWatcher(opts *WatcherOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	stale := opts.StaleThreshold
	if stale <= 0 {
		stale = 30 * time.Minute
	}
	return &Watcher{
		source:         opts.Source,
		logger:         opts.Logger,
		interval:       interval,
		onSwap:         opts.OnSwap,
		metrics:        opts.Metrics,
		staleThreshold: stale,
		lastSuccessAt:  time.Now(),
		now:            time.Now,
	}
}

// Run polls until ctx is cancelled. Launch as go w.Run(ctx).
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "content watcher starting", "poll_interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "content watcher stopping",
				"reason", ctx.Err(),
				"polls", w.pollCount,
				"swaps", w.swapCount,
			)
			return ctx.Err()
		case <-ticker.C:
			if next, reset := w.afterPoll(ctx, w.checkOnce(ctx)); reset {
				ticker.Reset(next)
			}
		}
	}
}

// afterPoll updates backoff and staleness state and says whether the
// ticker needs a new period.
func (w *Watcher) afterPoll(ctx context.Context, result pollResult) (time.Duration, bool) {
	if result == pollFetchError {
		w.consecutiveErrs++
		backoff := w.backoffDuration()
		w.logger.Warn(ctx, "content watcher: backing off",
			"consecutive_errors", w.consecutiveErrs,
			"next_poll_in", backoff.String(),
		)
		if since := w.now().Sub(w.lastSuccessAt); since > w.staleThreshold && !w.staleLogged {
			w.logger.Error(ctx, fmt.Errorf("last successful content poll was %s ago", since.Truncate(time.Second)),
				"content watcher: content is stale, unable to check for updates",
			)
			w.staleLogged = true
			if w.metrics != nil {
				w.metrics.SetWatcherStale(true)
			}
		}
		return backoff, true
	}

	if w.staleLogged {
		w.logger.Info(ctx, "content watcher: staleness recovered")
		w.staleLogged = false
		if w.metrics != nil {
			w.metrics.SetWatcherStale(false)
		}
	}
	if w.consecutiveErrs > 0 {
		w.logger.Info(ctx, "content watcher: recovered, resuming normal interval",
			"had_consecutive_errors", w.consecutiveErrs,
		)
		w.consecutiveErrs = 0
		return w.interval, true
	}
	return 0, false
}

func (w *Watcher) checkOnce(ctx context.Context) pollResult {
	w.pollCount++
	if w.metrics != nil {
		w.metrics.IncWatcherPolls()
	}

	start := w.now()
	swapped, hash, err := w.source.Refresh(ctx)
	if w.metrics != nil {
		w.metrics.ObserveContentLoad(w.now().Sub(start))
	}
	if err != nil {
		if errors.Is(err, ErrInvalidDocument) {
			// the store is reachable, so this is not staleness
			w.markSuccess()
			w.logger.Error(ctx, err, "content watcher: stored document is invalid, keeping current content")
			if w.metrics != nil {
				w.metrics.IncWatcherError("invalid")
			}
			return pollInvalidError
		}
		w.logger.Error(ctx, err, "content watcher: poll failed")
		if w.metrics != nil {
			w.metrics.IncWatcherError("fetch")
		}
		return pollFetchError
	}

	w.markSuccess()
	if !swapped {
		return pollNoChange
	}

	w.swapCount++
	w.logger.Info(ctx, "content watcher: document swapped",
		"sha256", truncHash(hash),
		"total_swaps", w.swapCount,
	)
	if w.metrics != nil {
		w.metrics.IncWatcherSwaps()
	}
	if w.onSwap != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error(ctx, fmt.Errorf("OnSwap panic: %v", r),
						"content watcher: OnSwap callback panicked, continuing",
						"sha256", truncHash(hash),
					)
				}
			}()
			w.onSwap(hash)
		}()
	}
	return pollSwapped
}

func (w *Watcher) markSuccess() {
	w.lastSuccessAt = w.now()
	if w.metrics != nil {
		w.metrics.SetWatcherLastSuccess(w.lastSuccessAt)
	}
}

// backoffDuration doubles the interval per consecutive error, capped at
// maxBackoff.
func (w *Watcher) backoffDuration() time.Duration {
	d := time.Duration(float64(w.interval) * math.Pow(2, float64(w.consecutiveErrs)))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}
