package search

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dharmasatrya/flightdeals/internal/amadeus"
	"github.com/dharmasatrya/flightdeals/internal/deeplink"
	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/normalizer"
	"github.com/dharmasatrya/flightdeals/internal/pricing"
	"github.com/dharmasatrya/flightdeals/internal/ranking"
	"github.com/dharmasatrya/flightdeals/internal/scoring"
)

// maxFanOutCandidates bounds how many inspiration destinations are tried in
// an "anywhere" search.
const maxFanOutCandidates = 10

// OfferSource is the provider capability the orchestrator depends on.
type OfferSource interface {
	SearchFlightOffers(ctx context.Context, q amadeus.OffersQuery) ([]amadeus.FlightOffer, error)
	FlightDestinations(ctx context.Context, origin string, oneWay bool) ([]string, error)
}

type Config struct {
	QueryTimeout time.Duration
	FanOutWidth  int
}

type Orchestrator struct {
	provider OfferSource
	baseline *pricing.Estimator
	scorer   *scoring.Engine
	config   Config
}

// Result carries the ranked deals plus fan-out bookkeeping for response
// metadata.
type Result struct {
	Deals            []models.Deal
	CandidatesTried  int
	CandidatesFailed int
}

func NewOrchestrator(provider OfferSource, baseline *pricing.Estimator, scorer *scoring.Engine, config Config) *Orchestrator {
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 20 * time.Second
	}
	if config.FanOutWidth <= 0 {
		config.FanOutWidth = 6
	}
	return &Orchestrator{
		provider: provider,
		baseline: baseline,
		scorer:   scorer,
		config:   config,
	}
}

// DiscoverDeals runs the full pipeline: fetch raw offers (single query or
// "anywhere" fan-out), normalize, filter, enrich, rank, truncate. Only a
// failure of the primary destination-known query or of the inspiration
// lookup surfaces as an error; per-candidate and per-deal failures degrade
// in place.
func (o *Orchestrator) DiscoverDeals(ctx context.Context, req models.SearchRequest) (*Result, error) {
	query := amadeus.OffersQuery{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Travelers,
		TravelClass:   req.CabinClass,
		NonStop:       req.Stops == models.StopsDirect,
		Max:           min(req.Limit, 250),
	}

	result := &Result{}
	var offers []amadeus.FlightOffer

	if req.Destination != "" {
		queryCtx, cancel := context.WithTimeout(ctx, o.config.QueryTimeout)
		defer cancel()

		fetched, err := o.provider.SearchFlightOffers(queryCtx, query)
		if err != nil {
			return nil, err
		}
		offers = fetched
	} else {
		fanned, err := o.fanOut(ctx, req, query, result)
		if err != nil {
			return nil, err
		}
		offers = fanned
	}

	deals := normalizer.NormalizeOffers(offers, req.Travelers, req.CabinClass)
	deals = filter.ByStops(deals, req.Stops, req.OneWay)
	deals = filter.ByTripLength(deals, req.TripLength)

	if err := o.enrich(ctx, deals); err != nil {
		return nil, err
	}

	result.Deals = ranking.Rank(deals, req.Limit)
	return result, nil
}

// fanOut resolves candidate destinations via the inspiration API and issues
// one offers query per candidate with bounded parallelism. Candidate
// failures are logged and dropped; only the inspiration call itself is
// fatal. Offer order follows candidate order regardless of completion order.
func (o *Orchestrator) fanOut(ctx context.Context, req models.SearchRequest, query amadeus.OffersQuery, result *Result) ([]amadeus.FlightOffer, error) {
	inspCtx, cancel := context.WithTimeout(ctx, o.config.QueryTimeout)
	defer cancel()

	candidates, err := o.provider.FlightDestinations(inspCtx, req.Origin, req.OneWay)
	if err != nil {
		return nil, err
	}
	if len(candidates) > maxFanOutCandidates {
		candidates = candidates[:maxFanOutCandidates]
	}
	result.CandidatesTried = len(candidates)

	slots := make([][]amadeus.FlightOffer, len(candidates))
	failed := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.FanOutWidth)

	for i, destination := range candidates {
		i, destination := i, destination
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			candidateQuery := query
			candidateQuery.Destination = destination

			queryCtx, cancel := context.WithTimeout(gctx, o.config.QueryTimeout)
			defer cancel()

			offers, err := o.provider.SearchFlightOffers(queryCtx, candidateQuery)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("candidate %s failed: %v", destination, err)
				failed[i] = true
				return nil
			}
			slots[i] = offers
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var offers []amadeus.FlightOffer
	for i, slot := range slots {
		if failed[i] {
			result.CandidatesFailed++
			continue
		}
		offers = append(offers, slot...)
	}
	return offers, nil
}

// enrich populates baseline, percent drop, deep link and score on each deal.
// Workers own their deal exclusively; the fan-out width also bounds
// pressure on the history and AI backends.
func (o *Orchestrator) enrich(ctx context.Context, deals []models.Deal) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.FanOutWidth)

	for i := range deals {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			deal := &deals[i]
			deal.PriceBaseline = o.baseline.Baseline(gctx, deal.OriginIATA, deal.DestinationIATA, deal.DepartureTime)
			deal.PricePctDrop = pricing.PctDropFromBaseline(deal.PriceTotal, deal.PriceBaseline)
			deal.DeepLink = deeplink.Compose(*deal)

			scored := o.scorer.Score(gctx, *deal)
			deal.Score = &scored.Score
			deal.ScoreFactors = scored.Reasons
			deal.Badges = scored.Badges
			return nil
		})
	}

	return g.Wait()
}
