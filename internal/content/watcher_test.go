package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

type fakeRefresher struct {
	swapped bool
	hash    string
	err     error
	calls   int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (bool, string, error) {
	f.calls++
	return f.swapped, f.hash, f.err
}

type watcherMetrics struct {
	polls, swaps int
	errs         map[string]int
	lastSuccess  time.Time
	stale        bool
	loads        int
}

func (m *watcherMetrics) IncWatcherPolls()                  { m.polls++ }
func (m *watcherMetrics) IncWatcherSwaps()                  { m.swaps++ }
func (m *watcherMetrics) IncWatcherError(t string)          { m.errs[t]++ }
func (m *watcherMetrics) ObserveContentLoad(time.Duration)  { m.loads++ }
func (m *watcherMetrics) SetWatcherLastSuccess(t time.Time) { m.lastSuccess = t }
func (m *watcherMetrics) SetWatcherStale(stale bool)        { m.stale = stale }

func newTestWatcher(src Refresher, opts ...func(*WatcherOptions)) (*Watcher, *watcherMetrics) {
	m := &watcherMetrics{errs: map[string]int{}}
	wo := &WatcherOptions{Source: src, PollInterval: 30 * time.Second, Metrics: m}
	for _, fn := range opts {
		fn(wo)
	}
	return NewWatcher(wo), m
}

func TestBackoffDuration_Progression(t *testing.T) {
	w := &Watcher{interval: 30 * time.Second}
	tests := []struct {
		errs int
		want time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{4, 5 * time.Minute}, // 480s capped
		{40, 5 * time.Minute},
	}
	for _, tt := range tests {
		w.consecutiveErrs = tt.errs
		if got := w.backoffDuration(); got != tt.want {
			t.Fatalf("backoff(%d) = %v, want %v", tt.errs, got, tt.want)
		}
	}
}

func TestNewWatcher_Defaults(t *testing.T) {
	w := NewWatcher(&WatcherOptions{Source: &fakeRefresher{}, PollInterval: -1})
	if w.interval != DefaultPollInterval {
		t.Fatalf("interval = %v, want %v", w.interval, DefaultPollInterval)
	}
	if w.staleThreshold != 30*time.Minute {
		t.Fatalf("staleThreshold = %v", w.staleThreshold)
	}
	if w.logger == nil {
		t.Fatal("nil logger not replaced")
	}
}

func TestCheckOnce_NoChange(t *testing.T) {
	src := &fakeRefresher{hash: "abc"}
	w, m := newTestWatcher(src)
	if got := w.checkOnce(t.Context()); got != pollNoChange {
		t.Fatalf("result = %v, want pollNoChange", got)
	}
	if m.polls != 1 || m.swaps != 0 || m.lastSuccess.IsZero() {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCheckOnce_SwapCallsOnSwap(t *testing.T) {
	src := &fakeRefresher{swapped: true, hash: "deadbeefcafe0000"}
	var got []string
	w, m := newTestWatcher(src, func(o *WatcherOptions) {
		o.OnSwap = func(h string) { got = append(got, h) }
	})
	if r := w.checkOnce(t.Context()); r != pollSwapped {
		t.Fatalf("result = %v, want pollSwapped", r)
	}
	if len(got) != 1 || got[0] != "deadbeefcafe0000" {
		t.Fatalf("OnSwap calls = %v", got)
	}
	if m.swaps != 1 || w.swapCount != 1 {
		t.Fatalf("swaps metric=%d count=%d", m.swaps, w.swapCount)
	}
}

func TestCheckOnce_OnSwapPanicRecovered(t *testing.T) {
	src := &fakeRefresher{swapped: true, hash: "h"}
	w, _ := newTestWatcher(src, func(o *WatcherOptions) {
		o.OnSwap = func(string) { panic("boom") }
	})
	if r := w.checkOnce(t.Context()); r != pollSwapped {
		t.Fatalf("result = %v", r)
	}
}

func TestCheckOnce_FetchError(t *testing.T) {
	src := &fakeRefresher{err: unavailable("get", errors.New("timeout"))}
	w, m := newTestWatcher(src)
	if r := w.checkOnce(t.Context()); r != pollFetchError {
		t.Fatalf("result = %v, want pollFetchError", r)
	}
	if m.errs["fetch"] != 1 || !m.lastSuccess.IsZero() {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCheckOnce_InvalidDocumentIsNotStale(t *testing.T) {
	src := &fakeRefresher{err: ErrInvalidDocument}
	w, m := newTestWatcher(src)
	if r := w.checkOnce(t.Context()); r != pollInvalidError {
		t.Fatalf("result = %v, want pollInvalidError", r)
	}
	if m.errs["invalid"] != 1 || m.lastSuccess.IsZero() {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestAfterPoll_BackoffAndRecovery(t *testing.T) {
	w, _ := newTestWatcher(&fakeRefresher{})

	next, reset := w.afterPoll(t.Context(), pollFetchError)
	if !reset || next != time.Minute {
		t.Fatalf("first error = %v,%v want 1m,true", next, reset)
	}
	next, _ = w.afterPoll(t.Context(), pollFetchError)
	if next != 2*time.Minute {
		t.Fatalf("second error = %v, want 2m", next)
	}

	next, reset = w.afterPoll(t.Context(), pollNoChange)
	if !reset || next != 30*time.Second || w.consecutiveErrs != 0 {
		t.Fatalf("recovery = %v,%v errs=%d", next, reset, w.consecutiveErrs)
	}
	if _, reset = w.afterPoll(t.Context(), pollNoChange); reset {
		t.Fatal("steady state should not reset the ticker")
	}
}

func TestAfterPoll_StaleTransitions(t *testing.T) {
	w, m := newTestWatcher(&fakeRefresher{}, func(o *WatcherOptions) {
		o.StaleThreshold = time.Minute
	})
	clock := time.Now()
	w.now = func() time.Time { return clock }
	w.lastSuccessAt = clock

	w.afterPoll(t.Context(), pollFetchError)
	if m.stale {
		t.Fatal("stale before threshold")
	}

	clock = clock.Add(2 * time.Minute)
	w.afterPoll(t.Context(), pollFetchError)
	if !m.stale || !w.staleLogged {
		t.Fatal("not stale after threshold")
	}

	w.afterPoll(t.Context(), pollSwapped)
	if m.stale || w.staleLogged {
		t.Fatal("stale not cleared after success")
	}
}

func TestWatcher_RunPicksUpChanges(t *testing.T) {
	store := &memStore{doc: document.MustParse(`{"v":1}`), has: true, src: SourceS3}
	svc := NewService(ServiceOptions{Store: store})
	if err := svc.Load(t.Context()); err != nil {
		t.Fatal(err)
	}
	// another instance saves a new document
	store.doc = document.MustParse(`{"v":2}`)

	swapped := make(chan string, 1)
	w := NewWatcher(&WatcherOptions{
		Source:       svc,
		PollInterval: 10 * time.Millisecond,
		OnSwap: func(h string) {
			select {
			case swapped <- h:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case h := <-swapped:
		if h != svc.Manager().ContentHash() {
			t.Fatalf("OnSwap hash %s != active %s", h, svc.Manager().ContentHash())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never swapped")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}
