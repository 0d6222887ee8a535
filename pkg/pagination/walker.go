package pagination

import (
	"context"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/pacer"
)

// StopReason describes why a walk ended.
type StopReason string

const (
	// StopExhausted means the source returned an empty batch.
	StopExhausted StopReason = "exhausted"

	// StopLastPage means the reported total page count was reached.
	StopLastPage StopReason = "last_page"

	// StopPageCap means Config.MaxPages pages were processed.
	StopPageCap StopReason = "page_cap"

	// StopVisitor means the visitor asked to stop (e.g. a record cap was reached).
	StopVisitor StopReason = "visitor"

	// StopRequestFailed means a page request failed. Pages visited before the
	// failure are kept.
	StopRequestFailed StopReason = "request_failed"

	// StopCancelled means the context was cancelled while pacing.
	StopCancelled StopReason = "cancelled"
)

// Config holds walker configuration.
type Config struct {
	// StartPage is the first page requested (default 1).
	StartPage int

	// MaxPages caps the number of pages walked; 0 means no cap.
	MaxPages int

	// PageDelay is the fixed pause between page requests.
	PageDelay time.Duration
}

// DefaultConfig returns the configuration of the generic listing fetch path.
func DefaultConfig() Config {
	return Config{
		StartPage: 1,
		PageDelay: pacer.ListingPageDelay,
	}
}

// Page is one batch returned by a paginated endpoint.
type Page[T any] struct {
	Items []T

	// TotalPages is the page count reported by the server; 0 when absent.
	TotalPages int
}

// FetchFunc fetches a single page.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// VisitFunc receives every non-empty page in order. Returning false stops the walk.
type VisitFunc[T any] func(page int, items []T) bool

// Result summarises a walk.
type Result struct {
	Pages      int
	Items      int
	LastPage   int
	TotalPages int
	Stop       StopReason
	Err        error
}

// Walk requests pages in increasing order starting at cfg.StartPage until the
// batch is empty, the reported total page count is reached, the visitor stops
// the walk or a request fails. A missing total page count is treated as a
// single page.
func Walk[T any](ctx context.Context, cfg Config, fetch FetchFunc[T], visit VisitFunc[T]) Result {
	logger := logging.NewLogger("pagination")
	start := time.Now()

	page := cfg.StartPage
	if page <= 0 {
		page = 1
	}
	p := pacer.New("listing_page", cfg.PageDelay, logger)

	var res Result
	finish := func(reason StopReason, err error) Result {
		res.Stop = reason
		res.Err = err
		logger.Debug().
			Str("stop", string(reason)).
			Int("pages", res.Pages).
			Int("items", res.Items).
			Dur("duration", time.Since(start)).
			Msg("Walk complete")
		return res
	}

	for {
		if err := p.Wait(ctx); err != nil {
			return finish(StopCancelled, err)
		}

		batch, err := fetch(ctx, page)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("page", page).
				Int("pages_kept", res.Pages).
				Msg("Page fetch failed - ending pagination")
			return finish(StopRequestFailed, err)
		}

		if len(batch.Items) == 0 {
			return finish(StopExhausted, nil)
		}

		total := batch.TotalPages
		if total <= 0 {
			logger.Debug().Int("page", page).Msg("total_pages not reported, assuming single page")
			total = 1
		}

		res.Pages++
		res.Items += len(batch.Items)
		res.LastPage = page
		res.TotalPages = total

		logger.Info().
			Int("page", page).
			Int("total_pages", total).
			Int("records", len(batch.Items)).
			Msg("Retrieved page")

		if visit != nil && !visit(page, batch.Items) {
			return finish(StopVisitor, nil)
		}

		if page >= total {
			return finish(StopLastPage, nil)
		}
		if cfg.MaxPages > 0 && res.Pages >= cfg.MaxPages {
			return finish(StopPageCap, nil)
		}

		page++
	}
}

// Collect walks all pages and returns every item in page order.
func Collect[T any](ctx context.Context, cfg Config, fetch FetchFunc[T]) ([]T, Result) {
	var items []T
	res := Walk(ctx, cfg, fetch, func(_ int, batch []T) bool {
		items = append(items, batch...)
		return true
	})
	return items, res
}
