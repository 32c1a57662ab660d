package models

import (
	"strings"
	"time"
)

const (
	StopsAny    = "any"
	StopsDirect = "direct"
	StopsMax1   = "max1"
)

type TripLengthRange struct {
	MinDays *int `json:"min,omitempty"`
	MaxDays *int `json:"max,omitempty"`
}

type SearchRequest struct {
	OneWay        bool             `json:"one_way"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination,omitempty"`
	DepartureDate string           `json:"departure_date,omitempty"`
	ReturnDate    string           `json:"return_date,omitempty"`
	Travelers     int              `json:"travelers"`
	CabinClass    string           `json:"cabin_class,omitempty"`
	Stops         string           `json:"stops,omitempty"`
	TripLength    *TripLengthRange `json:"trip_length,omitempty"`
	Limit         int              `json:"limit,omitempty"`
}

func (r *SearchRequest) Validate() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))

	if len(r.Origin) != 3 {
		return ErrInvalidOrigin
	}
	if r.Destination != "" && len(r.Destination) != 3 {
		return ErrInvalidDestination
	}
	if r.Travelers == 0 {
		r.Travelers = 1
	}
	if r.Travelers < 1 || r.Travelers > 9 {
		return ErrInvalidTravelers
	}
	if r.Stops == "" {
		r.Stops = StopsAny
	}
	switch r.Stops {
	case StopsAny, StopsDirect, StopsMax1:
	default:
		return ErrInvalidStops
	}
	if r.Limit == 0 {
		r.Limit = 50
	}
	if r.Limit < 1 || r.Limit > 100 {
		return ErrInvalidLimit
	}

	// Date defaults: tomorrow when no departure given, departure+5 days for a
	// round trip with no return date.
	if r.DepartureDate == "" {
		r.DepartureDate = time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	}
	if r.OneWay {
		r.ReturnDate = ""
	} else if r.ReturnDate == "" {
		dep, err := time.Parse("2006-01-02", r.DepartureDate)
		if err != nil {
			dep = time.Now().UTC().AddDate(0, 0, 1)
		}
		r.ReturnDate = dep.AddDate(0, 0, 5).Format("2006-01-02")
	}

	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrInvalidOrigin      ValidationError = "origin must be a 3-letter IATA code"
	ErrInvalidDestination ValidationError = "destination must be a 3-letter IATA code"
	ErrInvalidTravelers   ValidationError = "travelers must be between 1 and 9"
	ErrInvalidStops       ValidationError = "stops must be one of: direct, max1, any"
	ErrInvalidLimit       ValidationError = "limit must be between 1 and 100"
)
