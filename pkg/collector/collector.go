// Package collector drives collection runs: it pages through the Petfinder
// listing endpoint, normalizes every animal and saves it record by record.
//
// Collect is the single primitive. CollectSample, CollectByRegion and
// CollectCustom are policies that call it with different filter sets and
// budgets.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/normalize"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/pacer"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/pagination"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/petfinder"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelter_pages_fetched_total",
		Help: "Total listing pages processed by collection runs",
	})

	collectionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_collection_runs_total",
		Help: "Total collection runs by stop reason",
	}, []string{"stop"})
)

// ErrAuthFailed is set on results of runs that could not authenticate.
var ErrAuthFailed = errors.New("authentication failed")

// Source is the part of the Petfinder client the collector uses.
type Source interface {
	Authenticate(ctx context.Context) bool
	FetchAnimalsPage(ctx context.Context, f petfinder.Filters) (pagination.Page[json.RawMessage], error)
	GetOrganizations(ctx context.Context, f petfinder.OrganizationFilters) ([]json.RawMessage, error)
}

// Stop describes how a run ended.
type Stop string

const (
	StopExhausted     Stop = "exhausted"
	StopCapped        Stop = "capped"
	StopAuthFailed    Stop = "auth_failed"
	StopRequestFailed Stop = "request_failed"
	StopCancelled     Stop = "cancelled"
)

// Config holds collector pacing and reporting settings.
type Config struct {
	// PageDelay is the pause between saved pages.
	PageDelay time.Duration

	// RegionDelay is the pause between regions in CollectByRegion.
	RegionDelay time.Duration

	// ProgressEvery logs progress after this many saved records; 0 disables it.
	ProgressEvery int
}

// DefaultConfig returns the standard pacing.
func DefaultConfig() Config {
	return Config{
		PageDelay:     pacer.SavedPageDelay,
		RegionDelay:   pacer.RegionDelay,
		ProgressEvery: 100,
	}
}

// Result summarises one Collect run.
type Result struct {
	RunID   string
	Filters petfinder.Filters

	Saved   int
	Created int
	Updated int
	Failed  int
	Pages   int

	Stop Stop
	Err  error
}

// Collector runs collection policies against a source and a store.
type Collector struct {
	source Source
	store  store.Store
	config Config
	logger zerolog.Logger
}

// New creates a collector.
func New(cfg Config, source Source, st store.Store) *Collector {
	return &Collector{
		source: source,
		store:  st,
		config: cfg,
		logger: logging.NewLogger("collector"),
	}
}

// Collect authenticates, then fetches f page by page and saves every record
// individually until the source is exhausted or maxCount records have been
// saved. maxCount <= 0 means no cap. Records that fail to normalize or save
// are counted and skipped.
func (c *Collector) Collect(ctx context.Context, f petfinder.Filters, maxCount int) Result {
	res := Result{RunID: uuid.NewString(), Filters: f}
	log := c.logger.With().Str("run_id", res.RunID).Logger()

	log.Info().
		Str("filters", f.String()).
		Int("max_count", maxCount).
		Msg("Starting collection")

	if !c.source.Authenticate(ctx) {
		res.Stop, res.Err = StopAuthFailed, ErrAuthFailed
		collectionRunsTotal.WithLabelValues(string(res.Stop)).Inc()
		log.Error().Msg("Failed to authenticate with Petfinder")
		return res
	}

	walkCfg := pagination.Config{StartPage: f.Page, PageDelay: c.config.PageDelay}
	fetch := func(ctx context.Context, page int) (pagination.Page[json.RawMessage], error) {
		return c.source.FetchAnimalsPage(ctx, f.WithPage(page))
	}

	visit := func(page int, batch []json.RawMessage) bool {
		pagesFetchedTotal.Inc()
		log.Debug().Int("page", page).Int("records", len(batch)).Msg("Saving page")

		for _, raw := range batch {
			if c.saveOne(ctx, log, raw, &res) && maxCount > 0 && res.Saved >= maxCount {
				log.Info().Int("saved", res.Saved).Msg("Reached target count")
				return false
			}
		}
		return true
	}

	walk := pagination.Walk(ctx, walkCfg, fetch, visit)
	res.Pages = walk.Pages
	res.Err = walk.Err

	switch walk.Stop {
	case pagination.StopVisitor:
		res.Stop = StopCapped
	case pagination.StopRequestFailed:
		switch {
		case errors.Is(walk.Err, context.Canceled) || ctx.Err() != nil:
			res.Stop = StopCancelled
		case petfinder.ClassOf(walk.Err) == petfinder.ErrorClassAuth:
			res.Stop = StopAuthFailed
		default:
			res.Stop = StopRequestFailed
		}
	case pagination.StopCancelled:
		res.Stop = StopCancelled
	default:
		res.Stop = StopExhausted
	}
	collectionRunsTotal.WithLabelValues(string(res.Stop)).Inc()

	event := log.Info()
	if res.Err != nil {
		event = log.Warn().Err(res.Err)
	}
	event.
		Str("stop", string(res.Stop)).
		Int("saved", res.Saved).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("failed", res.Failed).
		Int("pages", res.Pages).
		Msg("Collection finished")

	return res
}

// saveOne normalizes and saves a single payload, updating the tallies in res.
// It reports whether the record was saved.
func (c *Collector) saveOne(ctx context.Context, log zerolog.Logger, raw json.RawMessage, res *Result) bool {
	animal, err := normalize.Animal(raw)
	if err != nil {
		res.Failed++
		log.Warn().Err(err).Str("external_id", payloadID(raw)).Msg("Skipping malformed animal")
		return false
	}

	saved := c.store.SaveAnimal(ctx, animal)
	if !saved.OK() {
		res.Failed++
		log.Warn().Err(saved.Err).Str("external_id", animal.ExternalID).Msg("Failed to save animal")
		return false
	}

	res.Saved++
	if saved.Op == store.OpCreated {
		res.Created++
	} else {
		res.Updated++
	}
	if c.config.ProgressEvery > 0 && res.Saved%c.config.ProgressEvery == 0 {
		log.Info().Int("saved", res.Saved).Msg("Collection progress")
	}
	return true
}

// payloadID extracts the id of a payload that failed to normalize, for logging.
func payloadID(raw json.RawMessage) string {
	var p struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || len(p.ID) == 0 {
		return ""
	}
	return string(p.ID)
}
