package normalizer

import (
	"math"
	"strings"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/amadeus"
	"github.com/dharmasatrya/flightdeals/internal/models"
)

const providerName = "amadeus"

// ParseISODuration converts a PT-prefixed ISO-8601 duration such as PT2H10M,
// PT45M or PT14H to whole minutes. Empty or malformed input yields 0.
func ParseISODuration(s string) int {
	if !strings.HasPrefix(s, "PT") {
		return 0
	}

	hours, minutes := 0, 0
	buf := 0
	for _, ch := range s[2:] {
		switch {
		case ch >= '0' && ch <= '9':
			buf = buf*10 + int(ch-'0')
		case ch == 'H':
			hours = buf
			buf = 0
		case ch == 'M':
			minutes = buf
			buf = 0
		default:
			buf = 0
		}
	}
	return hours*60 + minutes
}

// parseTimestamp accepts provider timestamps with or without a zone offset.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// maxLayoverMinutes returns the largest gap between consecutive segments,
// floored to whole minutes. Pairs with unparseable timestamps are skipped;
// itineraries with fewer than two segments yield 0.
func maxLayoverMinutes(segments []amadeus.Segment) int {
	if len(segments) < 2 {
		return 0
	}
	max := 0
	for i := 0; i < len(segments)-1; i++ {
		arr := parseTimestamp(segments[i].Arrival.At)
		dep := parseTimestamp(segments[i+1].Departure.At)
		if arr == nil || dep == nil {
			continue
		}
		minutes := int(math.Floor(dep.Sub(*arr).Minutes()))
		if minutes > max {
			max = minutes
		}
	}
	return max
}

// collectAirlines appends carrier codes not already present, preserving
// first-seen order.
func collectAirlines(codes []string, segments []amadeus.Segment) []string {
	for _, seg := range segments {
		code := seg.CarrierCode
		if code == "" {
			continue
		}
		seen := false
		for _, existing := range codes {
			if existing == code {
				seen = true
				break
			}
		}
		if !seen {
			codes = append(codes, code)
		}
	}
	return codes
}

// NormalizeOffer turns one raw offer into a canonical deal. Offers with no
// itineraries, or whose outbound itinerary has no segments, yield false.
// Score, baseline and deep link are left unset for later stages.
func NormalizeOffer(offer amadeus.FlightOffer, travelers int, cabin string) (models.Deal, bool) {
	if len(offer.Itineraries) == 0 {
		return models.Deal{}, false
	}

	outbound := offer.Itineraries[0]
	if len(outbound.Segments) == 0 {
		return models.Deal{}, false
	}

	first := outbound.Segments[0]
	last := outbound.Segments[len(outbound.Segments)-1]

	deal := models.Deal{
		Provider:          providerName,
		OneWay:            len(offer.Itineraries) == 1,
		OriginIATA:        first.Departure.IATACode,
		DestinationIATA:   last.Arrival.IATACode,
		DepartureTime:     parseTimestamp(first.Departure.At),
		NumStops:          len(outbound.Segments) - 1,
		DurationMinutes:   ParseISODuration(outbound.Duration),
		LayoverMinutesMax: maxLayoverMinutes(outbound.Segments),
		AirlineCodes:      collectAirlines(nil, outbound.Segments),
		CabinClass:        cabin,
		NumTravelers:      travelers,
	}

	if len(offer.Itineraries) > 1 {
		ret := offer.Itineraries[1]
		if len(ret.Segments) > 0 {
			deal.ReturnTime = parseTimestamp(ret.Segments[0].Departure.At)
			deal.NumStops += len(ret.Segments) - 1
			deal.AirlineCodes = collectAirlines(deal.AirlineCodes, ret.Segments)
		}
		deal.DurationMinutes += ParseISODuration(ret.Duration)
		if retLayover := maxLayoverMinutes(ret.Segments); retLayover > deal.LayoverMinutesMax {
			deal.LayoverMinutesMax = retLayover
		}
	}

	deal.PriceTotal = offer.Price.TotalAmount()
	deal.Currency = offer.Price.Currency
	if deal.Currency == "" {
		deal.Currency = "USD"
	}

	return deal, true
}

// NormalizeOffers maps raw offers to canonical deals, dropping those that do
// not normalize.
func NormalizeOffers(offers []amadeus.FlightOffer, travelers int, cabin string) []models.Deal {
	deals := make([]models.Deal, 0, len(offers))
	for _, offer := range offers {
		if deal, ok := NormalizeOffer(offer, travelers, cabin); ok {
			deals = append(deals, deal)
		}
	}
	return deals
}
