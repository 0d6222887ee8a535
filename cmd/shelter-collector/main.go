// Command shelter-collector collects adoptable-animal listings from Petfinder
// into Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/annika-mcmullen/animal-shelter-insights/internal/config"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/collector"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/petfinder"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/store"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/token"
	"github.com/rs/zerolog"
)

// Collection modes.
const (
	ModeSample        = "sample"
	ModeRegional      = "regional"
	ModeCustom        = "custom"
	ModeOrganizations = "organizations"
)

type cli struct {
	Mode        string            `help:"Collection mode." enum:"sample,regional,custom,organizations" default:"sample" short:"m"`
	Location    string            `help:"Location for sample, custom and organization collection." default:"90210" short:"l"`
	Size        int               `help:"Target number of animals (split across species or regions)." default:"1000" short:"n"`
	Filter      map[string]string `help:"Listing filters for custom mode (e.g. --filter type=cat --filter age=baby)."`
	RegionsFile string            `help:"YAML region plan for regional mode." name:"regions-file" type:"path"`
	EnvFile     string            `help:"Environment file to load." default:".env" name:"env-file"`
	MetricsAddr string            `help:"Serve /metrics and /health on this address during the run (e.g. :9090)." name:"metrics-addr"`
	LogLevel    string            `help:"Override LOG_LEVEL (debug, info, warn, error)." name:"log-level"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.UsageOnError(),
		kong.Name("shelter-collector"),
		kong.Description("Collect adoptable-animal listings from the Petfinder API into Postgres."),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(c.Run(ctx))
}

// Run loads configuration, wires the pipeline and executes the selected mode.
func (c *cli) Run(ctx context.Context) error {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if !cfg.HasCredentials() {
		logger.Warn().Msgf("%s and %s are not set; authentication will fail", config.EnvAPIKey, config.EnvSecret)
	}

	if c.MetricsAddr != "" {
		srv := &http.Server{Addr: c.MetricsAddr, Handler: newRouter(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", c.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", c.MetricsAddr).Msg("Serving metrics")
	}

	st, err := store.OpenPostgres(ctx, store.DefaultPostgresConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.CreateSchema(ctx); err != nil {
		return err
	}

	tokens := token.NewManager(token.Config{
		APIKey:   cfg.APIKey,
		Secret:   cfg.Secret,
		TokenURL: cfg.TokenURL(),
	})

	clientCfg := petfinder.DefaultConfig()
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.MaxRequestsPerSecond = cfg.MaxRequestsPerSecond
	client, err := petfinder.New(clientCfg, tokens)
	if err != nil {
		return err
	}

	col := collector.New(collector.DefaultConfig(), client, st)
	return c.execute(ctx, col, logger)
}

// execute runs the selected mode against an assembled collector.
func (c *cli) execute(ctx context.Context, col *collector.Collector, logger zerolog.Logger) error {
	switch c.Mode {
	case ModeSample:
		sum := col.CollectSample(ctx, c.Location, c.Size)
		logger.Info().Int("saved", sum.Saved).Msg("Sample collection done")

	case ModeRegional:
		regions, err := c.regions()
		if err != nil {
			return err
		}
		perRegion := c.Size / len(regions)
		if c.Size > 0 && perRegion < 1 {
			perRegion = 1
		}
		sum := col.CollectByRegion(ctx, regions, perRegion)
		logger.Info().Int("saved", sum.Saved).Int("regions", len(regions)).Msg("Regional collection done")

	case ModeCustom:
		var res collector.Result
		if len(c.Filter) > 0 {
			f, err := petfinder.ParseFilters(c.Filter)
			if err != nil {
				return err
			}
			if f.Location == "" && f.Distance == 0 {
				f.Location = c.Location
			}
			res = col.Collect(ctx, f, c.Size)
		} else {
			res = col.CollectCustom(ctx, c.Location, c.Size)
		}
		logger.Info().Int("saved", res.Saved).Str("stop", string(res.Stop)).Msg("Custom collection done")

	case ModeOrganizations:
		res := col.CollectOrganizations(ctx, petfinder.OrganizationFilters{Location: c.Location})
		if res.Err != nil {
			return res.Err
		}
		logger.Info().Int("created", res.Created).Int("skipped", res.Skipped).Msg("Organization collection done")

	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

// regions returns the region plan locations, or the built-in metro list.
func (c *cli) regions() ([]string, error) {
	if c.RegionsFile == "" {
		return collector.DefaultRegions, nil
	}
	plan, err := config.LoadRegionPlan(c.RegionsFile)
	if err != nil {
		return nil, err
	}
	return plan.Locations(), nil
}
