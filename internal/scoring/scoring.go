package scoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// ErrUnavailable reports that the AI scoring backend failed or returned
// output that could not be parsed; callers fall back to the heuristic.
var ErrUnavailable = errors.New("ai scoring unavailable")

const longLayoverMinutes = 180

// Scorer is the AI scoring capability.
type Scorer interface {
	ScoreDeal(ctx context.Context, deal models.Deal) (Result, error)
}

// QualitySource maps carrier codes to quality scores in [0,1]. Missing
// entries mean "unknown, no penalty".
type QualitySource interface {
	AirlineQuality(ctx context.Context, codes []string) (map[string]float64, error)
}

type Result struct {
	Score   int
	Reasons []string
	Badges  []string
}

type Engine struct {
	ai      Scorer
	quality QualitySource
	timeout time.Duration
}

func NewEngine(ai Scorer, quality QualitySource, timeout time.Duration) *Engine {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Engine{ai: ai, quality: quality, timeout: timeout}
}

// Score produces a [0,100] score with reasons and badges. The AI path is
// tried first and its score kept verbatim; any AI failure (including
// timeout) falls back to the deterministic heuristic.
func (e *Engine) Score(ctx context.Context, deal models.Deal) Result {
	if e.ai != nil {
		aiCtx, cancel := context.WithTimeout(ctx, e.timeout)
		result, err := e.ai.ScoreDeal(aiCtx, deal)
		cancel()
		if err == nil {
			result.Badges = appendSafetyBadges(result.Badges, deal)
			if len(result.Badges) > 3 {
				result.Badges = result.Badges[:3]
			}
			return result
		}
		if !errors.Is(err, ErrUnavailable) {
			log.Printf("ai scoring failed for %s-%s: %v", deal.OriginIATA, deal.DestinationIATA, err)
		}
	}

	return e.heuristicScore(ctx, deal)
}

// appendSafetyBadges adds long-layover and red-eye badges the AI may have
// missed, deduplicated against the existing list and appended at the end.
func appendSafetyBadges(badges []string, deal models.Deal) []string {
	if deal.LayoverMinutesMax >= longLayoverMinutes && !contains(badges, models.BadgeLongLayover) {
		badges = append(badges, models.BadgeLongLayover)
	}
	if isRedEye(deal.DepartureTime) && !contains(badges, models.BadgeRedEye) {
		badges = append(badges, models.BadgeRedEye)
	}
	return badges
}

// heuristicScore is the deterministic fallback. Its badge list is assembled
// in trigger order and deliberately not capped at 3, matching the AI path's
// documented asymmetry.
func (e *Engine) heuristicScore(ctx context.Context, deal models.Deal) Result {
	score := 50.0
	var reasons, badges []string

	switch deal.NumStops {
	case 0:
		score += 20
		reasons = append(reasons, "Direct flight bonus")
	case 1:
		score += 10
		reasons = append(reasons, "One-stop acceptable")
	default:
		reasons = append(reasons, "Multiple stops reduce comfort")
	}

	if deal.LayoverMinutesMax >= longLayoverMinutes {
		penalty := math.Min(10, float64(deal.LayoverMinutesMax)/60*2)
		score -= penalty
		reasons = append(reasons, fmt.Sprintf("Layover penalty (-%d)", int(penalty)))
		badges = append(badges, models.BadgeLongLayover)
	}

	if deal.DurationMinutes >= 1200 {
		score -= 10
		reasons = append(reasons, "Very long total duration")
	} else if deal.DurationMinutes >= 900 {
		score -= 5
		reasons = append(reasons, "Long total duration")
	}

	if e.hasLowQualityAirline(ctx, deal.AirlineCodes) {
		score -= 8
		reasons = append(reasons, "Low-rated operating carrier")
		badges = append(badges, models.BadgeBadAirline)
	}

	if isRedEye(deal.DepartureTime) {
		score -= 4
		reasons = append(reasons, "Red-eye departure")
		badges = append(badges, models.BadgeRedEye)
	}

	final := int(math.Round(score))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	if final >= 85 && deal.NumStops == 0 {
		badges = append(badges, models.BadgeAmazingDeal)
	}

	return Result{Score: final, Reasons: reasons, Badges: badges}
}

// hasLowQualityAirline reports whether any carrier has a recorded quality
// score below 0.4. Lookup failures mean no penalty.
func (e *Engine) hasLowQualityAirline(ctx context.Context, codes []string) bool {
	if e.quality == nil || len(codes) == 0 {
		return false
	}
	scores, err := e.quality.AirlineQuality(ctx, codes)
	if err != nil {
		log.Printf("airline quality lookup failed: %v", err)
		return false
	}
	for _, s := range scores {
		if s < 0.4 {
			return true
		}
	}
	return false
}

// isRedEye reports whether the departure's local hour falls in [0,5].
func isRedEye(departure *time.Time) bool {
	if departure == nil {
		return false
	}
	hour := departure.Hour()
	return hour >= 0 && hour <= 5
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
