package filter

import (
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// ByStops keeps deals matching the requested stops policy. The max1 policy
// allows up to 2 total stops on a round trip, approximating one stop per
// direction; it can admit 2 stops on one leg and 0 on the other.
func ByStops(deals []models.Deal, policy string, oneWay bool) []models.Deal {
	if policy == models.StopsAny {
		return deals
	}

	limit := 0
	if policy == models.StopsMax1 {
		limit = 1
		if !oneWay {
			limit = 2
		}
	}

	result := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if d.NumStops <= limit {
			result = append(result, d)
		}
	}
	return result
}

// ByTripLength keeps round-trip deals whose calendar-day length falls inside
// the requested range. Deals missing a departure or return timestamp pass
// through unfiltered, as does everything when no range is given.
func ByTripLength(deals []models.Deal, r *models.TripLengthRange) []models.Deal {
	if r == nil || (r.MinDays == nil && r.MaxDays == nil) {
		return deals
	}

	result := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if d.DepartureTime == nil || d.ReturnTime == nil {
			result = append(result, d)
			continue
		}
		days := calendarDays(*d.DepartureTime, *d.ReturnTime)
		if r.MinDays != nil && days < *r.MinDays {
			continue
		}
		if r.MaxDays != nil && days > *r.MaxDays {
			continue
		}
		result = append(result, d)
	}
	return result
}

// calendarDays ignores time of day: it is the difference between the two
// calendar dates.
func calendarDays(dep, ret time.Time) int {
	depDate := time.Date(dep.Year(), dep.Month(), dep.Day(), 0, 0, 0, 0, time.UTC)
	retDate := time.Date(ret.Year(), ret.Month(), ret.Day(), 0, 0, 0, 0, time.UTC)
	return int(retDate.Sub(depDate).Hours() / 24)
}
