package quotes

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testSources = []string{"broker-a", "broker-b", "broker-c"}

func newTestProvider() *SimulatedProvider {
	clock := func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return NewSimulatedProvider(testSources, 0.0005, clock, rand.New(rand.NewSource(42)))
}

func TestSimulatedProvider_OneQuotePerSource(t *testing.T) {
	p := newTestProvider()

	quotes, err := p.GetQuotes(context.Background(), "EURUSD")

	assert.NoError(t, err)
	assert.Len(t, quotes, 3)
	for i, q := range quotes {
		assert.Equal(t, testSources[i], q.Source)
		assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), q.ObservedAt)
	}
}

func TestSimulatedProvider_JitterStaysWithinBand(t *testing.T) {
	p := newTestProvider()

	for i := 0; i < 50; i++ {
		quotes, err := p.GetQuotes(context.Background(), "EURUSD")
		assert.NoError(t, err)
		for _, q := range quotes {
			deviation := math.Abs(q.Price-1.0850) / 1.0850
			assert.LessOrEqual(t, deviation, 0.0005, "price %f outside jitter band", q.Price)
		}
	}
}

func TestSimulatedProvider_UnknownSymbolUsesDefaultBase(t *testing.T) {
	p := newTestProvider()

	quotes, err := p.GetQuotes(context.Background(), "NOTREAL")

	assert.NoError(t, err)
	assert.Len(t, quotes, 3)
	for _, q := range quotes {
		assert.InDelta(t, 1.0, q.Price, 0.0005)
	}
}

func TestSimulatedProvider_DeterministicWithSeededRand(t *testing.T) {
	a := newTestProvider()
	b := newTestProvider()

	quotesA, err := a.GetQuotes(context.Background(), "USDJPY")
	assert.NoError(t, err)
	quotesB, err := b.GetQuotes(context.Background(), "USDJPY")
	assert.NoError(t, err)

	assert.Equal(t, quotesA, quotesB)
}
