package deeplink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestComposeOneWay(t *testing.T) {
	deal := models.Deal{
		OriginIATA:      "JFK",
		DestinationIATA: "LAX",
		DepartureTime:   timePtr(time.Date(2025, 11, 10, 8, 30, 0, 0, time.UTC)),
	}

	assert.Equal(t,
		"https://www.google.com/travel/flights?hl=en#flt=JFK.LAX.2025-11-10",
		Compose(deal))
}

func TestComposeRoundTrip(t *testing.T) {
	deal := models.Deal{
		OriginIATA:      "JFK",
		DestinationIATA: "LAX",
		DepartureTime:   timePtr(time.Date(2025, 11, 10, 8, 30, 0, 0, time.UTC)),
		ReturnTime:      timePtr(time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)),
	}

	assert.Equal(t,
		"https://www.google.com/travel/flights?hl=en#flt=JFK.LAX.2025-11-10*LAX.JFK.2025-11-15",
		Compose(deal))
}

func TestComposeKeepsProviderLink(t *testing.T) {
	deal := models.Deal{
		DeepLink:        "https://provider.example/book/123",
		OriginIATA:      "JFK",
		DestinationIATA: "LAX",
		DepartureTime:   timePtr(time.Now()),
	}

	assert.Equal(t, "https://provider.example/book/123", Compose(deal))
}

func TestComposeDegradesOnMissingData(t *testing.T) {
	assert.Empty(t, Compose(models.Deal{OriginIATA: "JFK", DestinationIATA: "LAX"}), "no departure")
	assert.Empty(t, Compose(models.Deal{OriginIATA: "JFK", DepartureTime: timePtr(time.Now())}), "no destination")
	assert.Empty(t, Compose(models.Deal{}))
}
