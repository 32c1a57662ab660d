package models

import "time"

// Badge vocabulary. Scoring only ever emits badges from this set.
const (
	BadgeBadAirline       = "bad-airline"
	BadgeLongLayover      = "long-layover"
	BadgeRedEye           = "red-eye"
	BadgeAmazingDeal      = "amazing-deal"
	BadgeMorningDeparture = "morning-departure"
	BadgeWeekendFriendly  = "weekend-friendly"
	BadgeShoulderSeason   = "shoulder-season"
	BadgeTightConnection  = "tight-connection"
)

var BadgeVocabulary = map[string]bool{
	BadgeBadAirline:       true,
	BadgeLongLayover:      true,
	BadgeRedEye:           true,
	BadgeAmazingDeal:      true,
	BadgeMorningDeparture: true,
	BadgeWeekendFriendly:  true,
	BadgeShoulderSeason:   true,
	BadgeTightConnection:  true,
}

// Deal is the canonical record one raw provider offer normalizes into.
// The normalizer fills the structural fields; baseline, deep link and
// score fields are populated by later pipeline stages.
type Deal struct {
	Provider        string     `json:"provider"`
	OneWay          bool       `json:"one_way"`
	OriginIATA      string     `json:"origin"`
	DestinationIATA string     `json:"destination"`
	DepartureTime   *time.Time `json:"departure_time,omitempty"`
	ReturnTime      *time.Time `json:"return_time,omitempty"`

	NumStops          int      `json:"num_stops"`
	DurationMinutes   int      `json:"duration_minutes"`
	LayoverMinutesMax int      `json:"layover_minutes_max"`
	AirlineCodes      []string `json:"airline_codes"`
	CabinClass        string   `json:"cabin_class,omitempty"`

	PriceTotal     float64 `json:"price_total"`
	Currency       string  `json:"currency"`
	PriceFormatted string  `json:"price_formatted,omitempty"`
	NumTravelers   int     `json:"num_travelers"`

	DeepLink string `json:"deep_link,omitempty"`

	PriceBaseline *float64 `json:"price_baseline,omitempty"`
	PricePctDrop  *float64 `json:"price_pct_drop,omitempty"`

	Score        *int     `json:"score,omitempty"`
	ScoreFactors []string `json:"score_factors,omitempty"`
	Badges       []string `json:"badges,omitempty"`
}
