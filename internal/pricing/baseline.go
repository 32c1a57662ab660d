package pricing

import (
	"context"
	"log"
	"math"
	"sort"
	"time"
)

const (
	// Sample-set bounds for the baseline.
	maxSamples      = 500
	recencyWindow   = 90 * 24 * time.Hour
	departureWindow = 30 * 24 * time.Hour
)

// HistorySource reads historical prices for a route, most recent first.
// An empty result is a valid, non-error response.
type HistorySource interface {
	RecentRoutePrices(ctx context.Context, origin, destination string, since time.Time, limit int) ([]float64, error)
	DepartureWindowPrices(ctx context.Context, origin, destination string, from, to time.Time, limit int) ([]float64, error)
}

type Estimator struct {
	history HistorySource
	timeout time.Duration
}

func NewEstimator(history HistorySource, timeout time.Duration) *Estimator {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Estimator{history: history, timeout: timeout}
}

// Baseline returns the median historical price for the route, or nil when no
// samples exist. With a known departure the sample set is prices whose own
// departure falls within ±30 days of it; otherwise prices recorded in the
// last 90 days. Lookup failures degrade to "no data".
func (e *Estimator) Baseline(ctx context.Context, origin, destination string, departure *time.Time) *float64 {
	if e == nil || e.history == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var prices []float64
	var err error
	if departure == nil {
		prices, err = e.history.RecentRoutePrices(ctx, origin, destination, time.Now().UTC().Add(-recencyWindow), maxSamples)
	} else {
		prices, err = e.history.DepartureWindowPrices(ctx, origin, destination,
			departure.Add(-departureWindow), departure.Add(departureWindow), maxSamples)
	}
	if err != nil {
		log.Printf("baseline lookup failed for %s-%s: %v", origin, destination, err)
		return nil
	}
	if len(prices) == 0 {
		return nil
	}

	baseline := median(prices)
	return &baseline
}

func median(prices []float64) float64 {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// PctDropFromBaseline derives the fractional price drop, clamped to ≥0 and
// rounded to 4 decimals. A nil or non-positive baseline yields nil; a price
// at or above baseline yields 0, never a negative drop.
func PctDropFromBaseline(currentPrice float64, baseline *float64) *float64 {
	if baseline == nil || *baseline <= 0 {
		return nil
	}
	drop := (*baseline - currentPrice) / *baseline
	drop = math.Round(drop*10000) / 10000
	if drop < 0 {
		drop = 0
	}
	return &drop
}
