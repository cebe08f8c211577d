package downloader

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bodii/kfda-catalog/pkg/api"
	"github.com/bodii/kfda-catalog/pkg/catalog"
	"github.com/bodii/kfda-catalog/pkg/normalize"
)

// API result codes the loop dispatches on.
const (
	resultCodeOK        = "00"
	resultCodeNoData    = "03"
	resultCodeRateLimit = "22"
)

// Prometheus metrics for download runs.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kfda_pages_fetched_total",
		Help: "Total successfully processed pages",
	})

	pageRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfda_page_retries_total",
		Help: "Total per-page retry attempts by error class",
	}, []string{"class"})

	itemsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kfda_items_skipped_total",
		Help: "Total raw items dropped by the classification filter",
	})

	itemsKeptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kfda_items_kept_total",
		Help: "Total items that survived normalization",
	})

	runsAbortedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kfda_runs_aborted_total",
		Help: "Total runs that exhausted retries and returned partial data",
	})
)

// State represents the download loop state.
type State string

const (
	// StateFetching is the active state while pages remain.
	StateFetching State = "fetching"

	// StateDone means the API reported the end of the dataset.
	StateDone State = "done"

	// StateAborted means a page exhausted its retry budget; the records
	// accumulated before the failing page are still returned.
	StateAborted State = "aborted"
)

// Fetcher fetches one page of raw records. *api.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, pageNo int) (*api.Page, error)
}

// Config holds the download loop configuration.
type Config struct {
	// IncludeAll disables the representative-only classification filter.
	IncludeAll bool

	// MaxAttempts is the per-page attempt ceiling, counting the initial
	// request. The counter resets at the start of each new page.
	MaxAttempts int

	// RetryBackoff is the base backoff for failed fetches. Transport
	// failures scale it linearly with the attempt number; unexpected
	// result codes wait exactly one unit.
	RetryBackoff time.Duration

	// RateLimitWait is the fixed wait after the in-band rate limit code.
	RateLimitWait time.Duration

	// PageDelay is the courtesy pause between successive pages.
	PageDelay time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		RetryBackoff:  5 * time.Second,
		RateLimitWait: 60 * time.Second,
		PageDelay:     200 * time.Millisecond,
	}
}

// Result is the outcome of one run. Foods is not yet deduplicated.
type Result struct {
	Foods      []catalog.Food
	State      State
	TotalCount int // total reported by the API, 0 if never learned
	Fetched    int // raw items seen, kept or not
	Skipped    int // raw items dropped by the classification filter
	Pages      int // successfully processed pages
}

// Downloader runs the sequential page fetch loop.
type Downloader struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a downloader.
func New(fetcher Fetcher, cfg Config) *Downloader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Downloader{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "downloader").Logger(),
		sleep:   sleepContext,
	}
}

// SetSleep replaces the wait function (for testing).
func (d *Downloader) SetSleep(fn func(ctx context.Context, dur time.Duration) error) {
	d.sleep = fn
}

// runState is the mutable per-run download state. It exists for exactly
// one run and is discarded at termination.
type runState struct {
	page       int
	total      int
	totalKnown bool
	fetched    int
	skipped    int
	pages      int
	foods      []catalog.Food
}

// Run drives the fetch loop until the dataset is exhausted, a page runs
// out of retries, or ctx is cancelled. The returned Result always carries
// the records accumulated so far; err is non-nil only for cancellation.
func (d *Downloader) Run(ctx context.Context) (*Result, error) {
	st := &runState{page: 1}
	state := StateFetching

	d.logger.Info().
		Bool("include_all", d.config.IncludeAll).
		Msg("Starting catalog download")

	for state == StateFetching {
		pageState, err := d.fetchPage(ctx, st)
		if err != nil {
			return d.result(st, StateAborted), err
		}
		state = pageState

		if state != StateFetching {
			break
		}

		st.page++
		if err := d.sleep(ctx, d.config.PageDelay); err != nil {
			return d.result(st, StateAborted), err
		}
	}

	if state == StateAborted {
		runsAbortedTotal.Inc()
	}

	d.logger.Info().
		Str("state", string(state)).
		Int("pages", st.pages).
		Int("fetched", st.fetched).
		Int("skipped", st.skipped).
		Int("records", len(st.foods)).
		Msg("Catalog download finished")

	return d.result(st, state), nil
}

// fetchPage runs the bounded attempt loop for the current page and, on
// success, processes its items. It returns the next loop state.
func (d *Downloader) fetchPage(ctx context.Context, st *runState) (State, error) {
	attempts := 0

	for {
		page, err := d.fetcher.FetchPage(ctx, st.page)
		if err != nil {
			if ctx.Err() != nil {
				return StateAborted, ctx.Err()
			}

			class := api.ClassOf(err)
			attempts++
			pageRetriesTotal.WithLabelValues(string(class)).Inc()

			if attempts >= d.config.MaxAttempts {
				d.logger.Error().
					Err(err).
					Int("page", st.page).
					Int("attempts", attempts).
					Msg("Retry budget exhausted - aborting with partial results")
				return StateAborted, nil
			}

			backoff := d.config.RetryBackoff * time.Duration(attempts)
			d.logger.Warn().
				Err(err).
				Int("page", st.page).
				Int("attempt", attempts).
				Dur("backoff", backoff).
				Msg("Page fetch failed - retrying")
			if err := d.sleep(ctx, backoff); err != nil {
				return StateAborted, err
			}
			continue
		}

		switch page.Header.ResultCode {
		case resultCodeOK:
			return d.processPage(page, st), nil

		case resultCodeNoData:
			// End of dataset; this page contributes nothing.
			d.logger.Info().Int("page", st.page).Msg("No more data")
			return StateDone, nil

		case resultCodeRateLimit:
			attempts++
			pageRetriesTotal.WithLabelValues(string(api.ErrorClassRateLimit)).Inc()
			if attempts >= d.config.MaxAttempts {
				d.logger.Error().
					Int("page", st.page).
					Int("attempts", attempts).
					Msg("Rate limited past retry budget - aborting with partial results")
				return StateAborted, nil
			}
			d.logger.Warn().
				Int("page", st.page).
				Dur("wait", d.config.RateLimitWait).
				Msg("Rate limited - waiting before retrying the same page")
			if err := d.sleep(ctx, d.config.RateLimitWait); err != nil {
				return StateAborted, err
			}
			continue

		default:
			attempts++
			pageRetriesTotal.WithLabelValues(string(api.ErrorClassProtocol)).Inc()
			if attempts >= d.config.MaxAttempts {
				d.logger.Error().
					Int("page", st.page).
					Str("result_code", page.Header.ResultCode).
					Str("result_msg", page.Header.ResultMsg).
					Msg("Retry budget exhausted - aborting with partial results")
				return StateAborted, nil
			}
			d.logger.Warn().
				Int("page", st.page).
				Str("result_code", page.Header.ResultCode).
				Str("result_msg", page.Header.ResultMsg).
				Msg("Unexpected result code - retrying")
			if err := d.sleep(ctx, d.config.RetryBackoff); err != nil {
				return StateAborted, err
			}
			continue
		}
	}
}

// processPage filters and normalizes a successful page's items, updates
// the counters, and decides whether the run is complete.
func (d *Downloader) processPage(page *api.Page, st *runState) State {
	if !st.totalKnown {
		st.total = int(page.Body.TotalCount)
		st.totalKnown = true
		d.logger.Info().Int("total_count", st.total).Msg("Total record count reported")
	}

	items := page.Body.Items
	st.fetched += len(items)
	st.pages++
	pagesFetchedTotal.Inc()

	kept := 0
	for _, item := range items {
		if !d.config.IncludeAll && !normalize.Representative(item) {
			st.skipped++
			itemsSkippedTotal.Inc()
			continue
		}
		if food := normalize.Normalize(item); food != nil {
			st.foods = append(st.foods, *food)
			kept++
			itemsKeptTotal.Inc()
		}
	}

	pct := 0.0
	if st.total > 0 {
		pct = float64(st.fetched) / float64(st.total) * 100
	}
	d.logger.Info().
		Int("page", st.page).
		Int("kept", kept).
		Int("records", len(st.foods)).
		Float64("progress_pct", pct).
		Msg("Processed page")

	if len(items) == 0 || (st.totalKnown && st.fetched >= st.total) {
		return StateDone
	}
	return StateFetching
}

func (d *Downloader) result(st *runState, state State) *Result {
	return &Result{
		Foods:      st.foods,
		State:      state,
		TotalCount: st.total,
		Fetched:    st.fetched,
		Skipped:    st.skipped,
		Pages:      st.pages,
	}
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
