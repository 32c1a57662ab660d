package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	recentPrices []float64
	windowPrices []float64
	err          error

	recentCalls int
	windowCalls int
	lastFrom    time.Time
	lastTo      time.Time
	lastLimit   int
}

func (f *fakeHistory) RecentRoutePrices(ctx context.Context, origin, destination string, since time.Time, limit int) ([]float64, error) {
	f.recentCalls++
	f.lastFrom = since
	f.lastLimit = limit
	return f.recentPrices, f.err
}

func (f *fakeHistory) DepartureWindowPrices(ctx context.Context, origin, destination string, from, to time.Time, limit int) ([]float64, error) {
	f.windowCalls++
	f.lastFrom = from
	f.lastTo = to
	f.lastLimit = limit
	return f.windowPrices, f.err
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 200.0, median([]float64{300, 100, 200}))
	assert.Equal(t, 150.0, median([]float64{100, 200}))
	assert.Equal(t, 42.0, median([]float64{42}))
}

func TestBaselineUnknownDepartureUsesRecencyWindow(t *testing.T) {
	history := &fakeHistory{recentPrices: []float64{250, 180, 220}}
	est := NewEstimator(history, time.Second)

	baseline := est.Baseline(context.Background(), "JFK", "LAX", nil)
	require.NotNil(t, baseline)
	assert.Equal(t, 220.0, *baseline)
	assert.Equal(t, 1, history.recentCalls)
	assert.Equal(t, 0, history.windowCalls)
	assert.Equal(t, 500, history.lastLimit)

	// Cutoff is roughly 90 days back.
	expected := time.Now().UTC().Add(-90 * 24 * time.Hour)
	assert.WithinDuration(t, expected, history.lastFrom, time.Minute)
}

func TestBaselineKnownDepartureUsesDepartureWindow(t *testing.T) {
	history := &fakeHistory{windowPrices: []float64{100, 300}}
	est := NewEstimator(history, time.Second)

	dep := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)
	baseline := est.Baseline(context.Background(), "JFK", "LAX", &dep)
	require.NotNil(t, baseline)
	assert.Equal(t, 200.0, *baseline)
	assert.Equal(t, 0, history.recentCalls)
	assert.Equal(t, 1, history.windowCalls)
	assert.Equal(t, dep.Add(-30*24*time.Hour), history.lastFrom)
	assert.Equal(t, dep.Add(30*24*time.Hour), history.lastTo)
}

func TestBaselineEmptyOrFailingHistory(t *testing.T) {
	assert.Nil(t, NewEstimator(&fakeHistory{}, time.Second).Baseline(context.Background(), "JFK", "LAX", nil))

	failing := &fakeHistory{err: errors.New("boom")}
	assert.Nil(t, NewEstimator(failing, time.Second).Baseline(context.Background(), "JFK", "LAX", nil))
}

func floatPtr(f float64) *float64 { return &f }

func TestPctDropFromBaseline(t *testing.T) {
	t.Run("nil baseline", func(t *testing.T) {
		assert.Nil(t, PctDropFromBaseline(200, nil))
	})

	t.Run("non-positive baseline", func(t *testing.T) {
		assert.Nil(t, PctDropFromBaseline(200, floatPtr(0)))
		assert.Nil(t, PctDropFromBaseline(200, floatPtr(-5)))
	})

	t.Run("price below baseline", func(t *testing.T) {
		drop := PctDropFromBaseline(150, floatPtr(200))
		require.NotNil(t, drop)
		assert.Equal(t, 0.25, *drop)
	})

	t.Run("rounded to four decimals", func(t *testing.T) {
		drop := PctDropFromBaseline(100, floatPtr(300))
		require.NotNil(t, drop)
		assert.Equal(t, 0.6667, *drop)
	})

	t.Run("price at or above baseline clamps to zero", func(t *testing.T) {
		drop := PctDropFromBaseline(200, floatPtr(200))
		require.NotNil(t, drop)
		assert.Equal(t, 0.0, *drop)

		drop = PctDropFromBaseline(350, floatPtr(200))
		require.NotNil(t, drop)
		assert.Equal(t, 0.0, *drop)
	})
}
