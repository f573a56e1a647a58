package dedup

import (
	"context"
	"fmt"
)

// URLSource lists the apply URLs already stored.
type URLSource interface {
	ExistingApplyURLs(ctx context.Context) ([]string, error)
}

// Load seeds a gate from src. It is called once per run.
func Load(ctx context.Context, src URLSource) (*Gate, error) {
	urls, err := src.ExistingApplyURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed dedup gate: %w", err)
	}
	return NewGate(urls), nil
}

// Gate is the in-memory set of known apply URLs. It is seeded once from the
// store and owned by the single pipeline goroutine, so it is not safe for
// concurrent use.
type Gate struct {
	seen map[string]struct{}
}

// NewGate returns a gate seeded with the given URLs.
func NewGate(urls []string) *Gate {
	g := &Gate{seen: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		if u != "" {
			g.seen[u] = struct{}{}
		}
	}
	return g
}

// Contains reports whether url is already known.
func (g *Gate) Contains(url string) bool {
	_, ok := g.seen[url]
	return ok
}

// Accept adds url and returns true, or returns false without changes if it was
// already present.
func (g *Gate) Accept(url string) bool {
	if g.Contains(url) {
		return false
	}
	g.seen[url] = struct{}{}
	return true
}

// Len returns the number of known URLs.
func (g *Gate) Len() int {
	return len(g.seen)
}
