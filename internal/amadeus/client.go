package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/ratelimit"
)

const (
	backendOffers      = "amadeus-offers"
	backendInspiration = "amadeus-inspiration"
	backendLocations   = "amadeus-locations"

	// Refresh the OAuth token this long before its actual expiry.
	tokenExpiryBuffer = 60 * time.Second
)

type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "amadeus auth: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("amadeus api error %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	Limiter   *ratelimit.BackendLimiter
}

// Client wraps the Amadeus self-service APIs with client-credentials OAuth.
// The token is cached in memory and refreshed shortly before expiry; the
// client is safe for concurrent use by fan-out workers.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	limiter    *ratelimit.BackendLimiter

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    cfg.Limiter,
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires.Add(-tokenExpiryBuffer)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.apiKey},
		"client_secret": {c.apiSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &AuthError{Err: fmt.Errorf("token request failed: %d %s", resp.StatusCode, string(body))}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &AuthError{Err: err}
	}

	c.token = tok.AccessToken
	c.expires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, backend, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, backend); err != nil {
			return err
		}
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// OffersQuery holds the flight-offers search parameters. Zero values are
// omitted from the request.
type OffersQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	TravelClass   string
	NonStop       bool
	Max           int
}

func (c *Client) SearchFlightOffers(ctx context.Context, q OffersQuery) ([]FlightOffer, error) {
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", strconv.Itoa(q.Adults))
	if q.Destination != "" {
		params.Set("destinationLocationCode", q.Destination)
	}
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	if q.TravelClass != "" {
		params.Set("travelClass", q.TravelClass)
	}
	if q.NonStop {
		params.Set("nonStop", "true")
	}
	if q.Max > 0 {
		params.Set("max", strconv.Itoa(q.Max))
	}

	var envelope offersEnvelope
	if err := c.get(ctx, backendOffers, "/v2/shopping/flight-offers", params, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) FlightDestinations(ctx context.Context, origin string, oneWay bool) ([]string, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("oneWay", strconv.FormatBool(oneWay))

	var envelope destinationsEnvelope
	if err := c.get(ctx, backendInspiration, "/v1/shopping/flight-destinations", params, &envelope); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(envelope.Data))
	for _, d := range envelope.Data {
		if d.Destination != "" {
			codes = append(codes, d.Destination)
		}
	}
	return codes, nil
}

func (c *Client) SearchLocations(ctx context.Context, keyword string, limit int) ([]models.Airport, error) {
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "AIRPORT")
	params.Set("page[limit]", strconv.Itoa(limit))

	var envelope locationsEnvelope
	if err := c.get(ctx, backendLocations, "/v1/reference-data/locations", params, &envelope); err != nil {
		return nil, err
	}

	airports := make([]models.Airport, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.IATACode == "" || item.Name == "" {
			continue
		}
		airports = append(airports, models.Airport{
			IATA:    item.IATACode,
			Name:    item.Name,
			City:    item.Address.CityName,
			Country: item.Address.CountryName,
		})
	}
	return airports, nil
}
