package models

type SearchMetadata struct {
	TotalResults     int   `json:"total_results"`
	CandidatesTried  int   `json:"candidates_tried,omitempty"`
	CandidatesFailed int   `json:"candidates_failed,omitempty"`
	SearchTimeMs     int64 `json:"search_time_ms"`
	CacheHit         bool  `json:"cache_hit"`
}

type SearchResponse struct {
	SearchCriteria SearchRequest  `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Deals          []Deal         `json:"deals"`
}

type TopDealsResponse struct {
	Deals []Deal `json:"deals"`
}

type Airport struct {
	IATA    string `json:"iata"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

type AirportsResponse struct {
	Airports []Airport `json:"airports"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
