package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightdeals/internal/amadeus"
)

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"PT2H10M", 130},
		{"PT45M", 45},
		{"PT14H", 840},
		{"PT0H0M", 0},
		{"PT5H30M", 330},
		{"", 0},
		{"PT", 0},
		{"2H10M", 0},
		{"garbage", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseISODuration(tc.input), "input %q", tc.input)
	}
}

func segment(carrier, from, depAt, to, arrAt string) amadeus.Segment {
	return amadeus.Segment{
		Departure:   amadeus.SegmentPoint{IATACode: from, At: depAt},
		Arrival:     amadeus.SegmentPoint{IATACode: to, At: arrAt},
		CarrierCode: carrier,
	}
}

func TestMaxLayoverMinutes(t *testing.T) {
	t.Run("single segment yields zero", func(t *testing.T) {
		segs := []amadeus.Segment{
			segment("AA", "JFK", "2025-11-10T08:00:00", "LAX", "2025-11-10T11:30:00"),
		}
		assert.Equal(t, 0, maxLayoverMinutes(segs))
	})

	t.Run("two segments", func(t *testing.T) {
		segs := []amadeus.Segment{
			segment("AA", "JFK", "2025-11-10T08:00:00", "ORD", "2025-11-10T10:00:00"),
			segment("AA", "ORD", "2025-11-10T13:20:00", "LAX", "2025-11-10T15:30:00"),
		}
		assert.Equal(t, 200, maxLayoverMinutes(segs))
	})

	t.Run("unparseable pair skipped", func(t *testing.T) {
		segs := []amadeus.Segment{
			segment("AA", "JFK", "2025-11-10T08:00:00", "ORD", "not-a-time"),
			segment("AA", "ORD", "2025-11-10T13:20:00", "DEN", "2025-11-10T14:30:00"),
			segment("AA", "DEN", "2025-11-10T15:30:00", "LAX", "2025-11-10T17:00:00"),
		}
		// Only the DEN connection (60 min) is parseable.
		assert.Equal(t, 60, maxLayoverMinutes(segs))
	})

	t.Run("never negative", func(t *testing.T) {
		segs := []amadeus.Segment{
			segment("AA", "JFK", "2025-11-10T08:00:00", "ORD", "2025-11-10T12:00:00"),
			segment("AA", "ORD", "2025-11-10T11:00:00", "LAX", "2025-11-10T13:30:00"),
		}
		assert.Equal(t, 0, maxLayoverMinutes(segs))
	})
}

func TestNormalizeOfferOneWay(t *testing.T) {
	offer := amadeus.FlightOffer{
		Itineraries: []amadeus.Itinerary{
			{
				Duration: "PT5H30M",
				Segments: []amadeus.Segment{
					segment("B6", "JFK", "2025-11-10T08:30:00", "LAX", "2025-11-10T11:45:00"),
				},
			},
		},
		Price: amadeus.OfferPrice{Total: "200.00", Currency: "USD"},
	}

	deal, ok := NormalizeOffer(offer, 1, "ECONOMY")
	require.True(t, ok)

	assert.Equal(t, "amadeus", deal.Provider)
	assert.True(t, deal.OneWay)
	assert.Equal(t, "JFK", deal.OriginIATA)
	assert.Equal(t, "LAX", deal.DestinationIATA)
	assert.Equal(t, 0, deal.NumStops)
	assert.Equal(t, 330, deal.DurationMinutes)
	assert.Equal(t, 0, deal.LayoverMinutesMax)
	assert.Equal(t, []string{"B6"}, deal.AirlineCodes)
	assert.Equal(t, "ECONOMY", deal.CabinClass)
	assert.Equal(t, 200.0, deal.PriceTotal)
	assert.Equal(t, "USD", deal.Currency)
	assert.Equal(t, 1, deal.NumTravelers)
	require.NotNil(t, deal.DepartureTime)
	assert.Nil(t, deal.ReturnTime)

	// Structural stage only.
	assert.Nil(t, deal.Score)
	assert.Nil(t, deal.PriceBaseline)
	assert.Empty(t, deal.DeepLink)
	assert.Empty(t, deal.Badges)
}

func TestNormalizeOfferRoundTripMerge(t *testing.T) {
	offer := amadeus.FlightOffer{
		Itineraries: []amadeus.Itinerary{
			{
				Duration: "PT8H",
				Segments: []amadeus.Segment{
					segment("AA", "JFK", "2025-11-10T08:00:00", "ORD", "2025-11-10T10:00:00"),
					segment("UA", "ORD", "2025-11-10T13:20:00", "LAX", "2025-11-10T15:30:00"),
				},
			},
			{
				Duration: "PT5H15M",
				Segments: []amadeus.Segment{
					segment("AA", "LAX", "2025-11-15T09:00:00", "JFK", "2025-11-15T17:15:00"),
				},
			},
		},
		Price: amadeus.OfferPrice{Total: "412.50", Currency: "USD"},
	}

	deal, ok := NormalizeOffer(offer, 2, "")
	require.True(t, ok)

	assert.False(t, deal.OneWay)
	assert.Equal(t, 1, deal.NumStops, "one outbound stop plus direct return")
	assert.Equal(t, 480+315, deal.DurationMinutes)
	assert.Equal(t, 200, deal.LayoverMinutesMax)
	assert.Equal(t, []string{"AA", "UA"}, deal.AirlineCodes, "first-seen order, no duplicates")
	require.NotNil(t, deal.ReturnTime)
	assert.Equal(t, time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC), deal.ReturnTime.UTC())
}

func TestNormalizeOfferRejections(t *testing.T) {
	_, ok := NormalizeOffer(amadeus.FlightOffer{}, 1, "")
	assert.False(t, ok, "no itineraries")

	_, ok = NormalizeOffer(amadeus.FlightOffer{
		Itineraries: []amadeus.Itinerary{{Duration: "PT2H"}},
	}, 1, "")
	assert.False(t, ok, "outbound without segments")
}

func TestNormalizeOfferPriceDefaults(t *testing.T) {
	offer := amadeus.FlightOffer{
		Itineraries: []amadeus.Itinerary{
			{Segments: []amadeus.Segment{
				segment("DL", "JFK", "2025-11-10T08:00:00", "BOS", "2025-11-10T09:10:00"),
			}},
		},
	}

	deal, ok := NormalizeOffer(offer, 1, "")
	require.True(t, ok)
	assert.Equal(t, 0.0, deal.PriceTotal)
	assert.Equal(t, "USD", deal.Currency)
	assert.Equal(t, 0, deal.DurationMinutes, "missing duration string yields 0")
}

func TestNormalizeOffersDropsBadOffers(t *testing.T) {
	offers := []amadeus.FlightOffer{
		{},
		{
			Itineraries: []amadeus.Itinerary{
				{Duration: "PT1H10M", Segments: []amadeus.Segment{
					segment("DL", "JFK", "2025-11-10T08:00:00", "BOS", "2025-11-10T09:10:00"),
				}},
			},
			Price: amadeus.OfferPrice{Total: "89.00", Currency: "USD"},
		},
	}

	deals := NormalizeOffers(offers, 1, "")
	require.Len(t, deals, 1)
	assert.Equal(t, "BOS", deals[0].DestinationIATA)
}
