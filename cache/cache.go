// Package cache keeps the latest market data value per symbol. It is safe
// for concurrent use, so a stream consumer can apply batches while other
// goroutines read.
package cache

import (
	"sort"
	"sync"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

type Cache struct {
	mu sync.RWMutex

	tradesBySymbol map[string]common.Trade
	quotesBySymbol map[string]common.Quote
	barsBySymbol   map[string]common.Bar
}

func New() *Cache {
	return &Cache{
		tradesBySymbol: make(map[string]common.Trade),
		quotesBySymbol: make(map[string]common.Quote),
		barsBySymbol:   make(map[string]common.Bar),
	}
}

// Apply stores every trade, quote and bar in the batch; other update kinds
// are ignored.
func (c *Cache) Apply(batch []common.StreamUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range batch {
		switch {
		case u.Trade != nil:
			c.tradesBySymbol[u.Trade.Symbol] = *u.Trade
		case u.Quote != nil:
			c.quotesBySymbol[u.Quote.Symbol] = *u.Quote
		case u.Bar != nil:
			c.barsBySymbol[u.Bar.Symbol] = *u.Bar
		}
	}
}

func (c *Cache) SetTrade(t common.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tradesBySymbol[t.Symbol] = t
}

func (c *Cache) SetQuote(q common.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotesBySymbol[q.Symbol] = q
}

func (c *Cache) SetBar(b common.Bar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.barsBySymbol[b.Symbol] = b
}

func (c *Cache) LatestTrade(symbol string) (common.Trade, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, hit := c.tradesBySymbol[symbol]
	return t, hit
}

func (c *Cache) LatestQuote(symbol string) (common.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, hit := c.quotesBySymbol[symbol]
	return q, hit
}

func (c *Cache) LatestBar(symbol string) (common.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, hit := c.barsBySymbol[symbol]
	return b, hit
}

// Symbols returns all symbols with any cached value, sorted.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for s := range c.tradesBySymbol {
		seen[s] = struct{}{}
	}
	for s := range c.quotesBySymbol {
		seen[s] = struct{}{}
	}
	for s := range c.barsBySymbol {
		seen[s] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	return symbols
}
