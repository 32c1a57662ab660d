package amadeus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, offersJSON string, tokenCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			atomic.AddInt32(tokenCalls, 1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":1799}`))
		case "/v2/shopping/flight-offers":
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(offersJSON))
		case "/v1/shopping/flight-destinations":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":[{"destination":"LAX"},{"destination":"MIA"},{"destination":""}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

const sampleOffers = `{"data":[{
	"itineraries":[{
		"duration":"PT5H30M",
		"segments":[{
			"departure":{"iataCode":"JFK","at":"2025-11-10T08:30:00"},
			"arrival":{"iataCode":"LAX","at":"2025-11-10T11:45:00"},
			"carrierCode":"B6"
		}]
	}],
	"price":{"total":"200.00","currency":"USD"}
}]}`

func TestSearchFlightOffers(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, sampleOffers, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{
		BaseURL:   server.URL,
		APIKey:    "key",
		APISecret: "secret",
		Timeout:   5 * time.Second,
	})

	offers, err := client.SearchFlightOffers(context.Background(), OffersQuery{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2025-11-10",
		Adults:        1,
		Max:           50,
	})
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	require.Len(t, offer.Itineraries, 1)
	assert.Equal(t, "PT5H30M", offer.Itineraries[0].Duration)
	assert.Equal(t, "B6", offer.Itineraries[0].Segments[0].CarrierCode)
	assert.Equal(t, 200.0, offer.Price.TotalAmount())
}

func TestTokenCachedAcrossRequests(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, sampleOffers, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "key", APISecret: "secret"})

	for i := 0; i < 3; i++ {
		_, err := client.SearchFlightOffers(context.Background(), OffersQuery{
			Origin: "JFK", Destination: "LAX", DepartureDate: "2025-11-10", Adults: 1,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token fetched once and cached")
}

func TestFlightDestinations(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, sampleOffers, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "key", APISecret: "secret"})

	codes, err := client.FlightDestinations(context.Background(), "JFK", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"LAX", "MIA"}, codes, "empty destination codes are dropped")
}

func TestAPIErrorOnFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			w.Write([]byte(`{"access_token":"tok-123","expires_in":1799}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors":[{"detail":"upstream broke"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "key", APISecret: "secret"})

	_, err := client.SearchFlightOffers(context.Background(), OffersQuery{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2025-11-10", Adults: 1,
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestAuthErrorOnTokenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "bad", APISecret: "bad"})

	_, err := client.SearchFlightOffers(context.Background(), OffersQuery{
		Origin: "JFK", Destination: "LAX", DepartureDate: "2025-11-10", Adults: 1,
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestOfferPriceTotalAmount(t *testing.T) {
	assert.Equal(t, 123.45, OfferPrice{Total: "123.45"}.TotalAmount())
	assert.Equal(t, 0.0, OfferPrice{Total: ""}.TotalAmount())
	assert.Equal(t, 0.0, OfferPrice{Total: "n/a"}.TotalAmount())
}
