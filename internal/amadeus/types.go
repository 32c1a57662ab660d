package amadeus

import "strconv"

// Raw flight-offers payload shapes. Only the fields the normalizer reads are
// modeled; anything else in the provider response is ignored at parse time.

type offersEnvelope struct {
	Data []FlightOffer `json:"data"`
}

type FlightOffer struct {
	Itineraries []Itinerary `json:"itineraries"`
	Price       OfferPrice  `json:"price"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   SegmentPoint `json:"departure"`
	Arrival     SegmentPoint `json:"arrival"`
	CarrierCode string       `json:"carrierCode"`
}

type SegmentPoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type OfferPrice struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// TotalAmount parses the provider's string-typed price. Missing or malformed
// amounts come back as 0.
func (p OfferPrice) TotalAmount() float64 {
	amount, err := strconv.ParseFloat(p.Total, 64)
	if err != nil {
		return 0
	}
	return amount
}

type destinationsEnvelope struct {
	Data []struct {
		Destination string `json:"destination"`
	} `json:"data"`
}

type locationsEnvelope struct {
	Data []struct {
		IATACode string `json:"iataCode"`
		Name     string `json:"name"`
		Address  struct {
			CityName    string `json:"cityName"`
			CountryName string `json:"countryName"`
		} `json:"address"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
