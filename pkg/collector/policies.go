package collector

import (
	"context"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/normalize"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/pacer"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/petfinder"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/store"
)

// Search radii (miles) used by the policies.
const (
	SampleDistance = 50
	RegionDistance = 25
)

// DefaultRegions are the US metro postal codes swept by CollectByRegion when
// no region plan is configured.
var DefaultRegions = []string{
	"10001", // New York, NY
	"90210", // Los Angeles, CA
	"60601", // Chicago, IL
	"77001", // Houston, TX
	"85001", // Phoenix, AZ
	"19101", // Philadelphia, PA
	"78701", // Austin, TX
	"32801", // Orlando, FL
	"30301", // Atlanta, GA
	"80201", // Denver, CO
}

// Summary aggregates the runs of one policy.
type Summary struct {
	Runs  []Result
	Saved int
}

func (s *Summary) add(r Result) {
	s.Runs = append(s.Runs, r)
	s.Saved += r.Saved
}

// CollectSample collects adoptable dogs then cats around location, half of
// size each. An odd size gives the extra record to cats. A species whose share
// rounds down to zero is skipped; size <= 0 collects both without a cap.
func (c *Collector) CollectSample(ctx context.Context, location string, size int) Summary {
	base := petfinder.Filters{
		Location: location,
		Distance: SampleDistance,
		Status:   "adoptable",
	}
	dogs := size / 2

	var sum Summary
	for _, run := range []struct {
		species string
		budget  int
	}{
		{"dog", dogs},
		{"cat", size - dogs},
	} {
		if ctx.Err() != nil {
			break
		}
		if size > 0 && run.budget <= 0 {
			continue
		}
		f := base
		f.Type = run.species
		c.logger.Info().Str("species", run.species).Int("budget", run.budget).Msg("Collecting sample")
		sum.add(c.Collect(ctx, f, run.budget))
	}

	c.logger.Info().Int("saved", sum.Saved).Msg("Sample collection complete")
	return sum
}

// CollectByRegion applies the same adoptable-animals template to every region
// in order, each with perRegion as its cap, pausing RegionDelay between
// regions.
func (c *Collector) CollectByRegion(ctx context.Context, regions []string, perRegion int) Summary {
	between := pacer.New("region", c.config.RegionDelay, c.logger)

	var sum Summary
	for _, region := range regions {
		if err := between.Wait(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Regional collection interrupted")
			break
		}

		c.logger.Info().Str("region", region).Msg("Collecting region")
		sum.add(c.Collect(ctx, petfinder.Filters{
			Location: region,
			Distance: RegionDistance,
			Status:   "adoptable",
		}, perRegion))
	}

	c.logger.Info().
		Int("saved", sum.Saved).
		Int("regions", len(regions)).
		Msg("Regional collection complete")
	return sum
}

// CollectCustom collects adoptable dogs around location up to size.
func (c *Collector) CollectCustom(ctx context.Context, location string, size int) Result {
	return c.Collect(ctx, petfinder.Filters{
		Type:     "dog",
		Location: location,
		Distance: SampleDistance,
		Status:   "adoptable",
	}, size)
}

// OrganizationResult summarises a CollectOrganizations run.
type OrganizationResult struct {
	Created int
	Skipped int
	Failed  int
	Err     error
}

// CollectOrganizations fetches one page of organizations and inserts the ones
// not yet stored.
func (c *Collector) CollectOrganizations(ctx context.Context, f petfinder.OrganizationFilters) OrganizationResult {
	var res OrganizationResult

	if !c.source.Authenticate(ctx) {
		res.Err = ErrAuthFailed
		c.logger.Error().Msg("Failed to authenticate with Petfinder")
		return res
	}

	payloads, err := c.source.GetOrganizations(ctx, f)
	if err != nil {
		res.Err = err
		c.logger.Error().Err(err).Msg("Failed to fetch organizations")
		return res
	}

	for _, raw := range payloads {
		org, err := normalize.Organization(raw)
		if err != nil {
			res.Failed++
			c.logger.Warn().Err(err).Str("external_id", payloadID(raw)).Msg("Skipping malformed organization")
			continue
		}

		op, err := c.store.SaveOrganization(ctx, org)
		switch {
		case err != nil:
			res.Failed++
			c.logger.Warn().Err(err).Str("external_id", org.ExternalID).Msg("Failed to save organization")
		case op == store.OpSkipped:
			res.Skipped++
		default:
			res.Created++
		}
	}

	c.logger.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Organization collection complete")
	return res
}
