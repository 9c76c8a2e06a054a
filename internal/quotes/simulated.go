package quotes

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fx-arbitrage-service/internal/models"
)

// defaultBasePrice is used for symbols without a configured base, so the
// provider stays total on unknown input instead of failing.
const defaultBasePrice = 1.0

// defaultBasePrices are rough mid-market levels for the default watchlist.
var defaultBasePrices = map[string]float64{
	"EURUSD": 1.0850,
	"GBPUSD": 1.2650,
	"USDJPY": 149.50,
	"AUDUSD": 0.6550,
	"USDCHF": 0.8850,
	"XAUUSD": 2350.0,
}

// SimulatedProvider generates quotes around a symbol-specific base price with
// small independent jitter per source. It stands in for real broker feeds.
type SimulatedProvider struct {
	sources    []string
	basePrices map[string]float64
	jitterPct  float64
	clock      Clock

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

var _ Provider = (*SimulatedProvider)(nil)

// NewSimulatedProvider creates a simulated quote provider. The clock and rng
// are explicit dependencies so tests can supply deterministic values.
func NewSimulatedProvider(sources []string, jitterPct float64, clock Clock, rng *rand.Rand) *SimulatedProvider {
	if clock == nil {
		clock = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedProvider{
		sources:    sources,
		basePrices: defaultBasePrices,
		jitterPct:  jitterPct,
		clock:      clock,
		rng:        rng,
	}
}

func (p *SimulatedProvider) Sources() []string {
	return p.sources
}

// GetQuotes returns one quote per source, each independently jittered around
// the symbol's base price. Unknown symbols fall back to a base of 1.0000.
func (p *SimulatedProvider) GetQuotes(_ context.Context, symbol string) ([]models.PriceQuote, error) {
	base, ok := p.basePrices[symbol]
	if !ok {
		base = defaultBasePrice
	}

	observedAt := p.clock().UTC()

	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]models.PriceQuote, 0, len(p.sources))
	for _, source := range p.sources {
		jitter := (p.rng.Float64()*2 - 1) * p.jitterPct
		result = append(result, models.PriceQuote{
			Source:     source,
			Price:      base * (1 + jitter),
			ObservedAt: observedAt,
		})
	}
	return result, nil
}
