package service

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "token_screener/internal/domain/entity"
	"token_screener/internal/entity"
)

type fakeListClient struct {
	mu      sync.Mutex
	pages   map[int][]entity.BirdeyeToken
	failAt  map[int]bool
	offsets []int
	wait    time.Duration
	// afterGet, if set, runs after every GetTokenList call.
	afterGet func()
}

func (f *fakeListClient) GetTokenList(_ context.Context, offset, limit int) ([]entity.BirdeyeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if f.failAt[offset] {
		return nil, errors.New("upstream down")
	}
	if f.afterGet != nil {
		defer f.afterGet()
	}
	page := f.pages[offset]
	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func (f *fakeListClient) BudgetWait() time.Duration { return f.wait }

func (f *fakeListClient) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

type fakeCache struct {
	cached  []entity.BirdeyeToken
	fresh   bool
	saved   [][]entity.BirdeyeToken
	saveErr error
	loads   int
}

func (f *fakeCache) Load() ([]entity.BirdeyeToken, bool) {
	f.loads++
	if !f.fresh || len(f.cached) == 0 {
		return nil, false
	}
	return f.cached, true
}

func (f *fakeCache) Save(tokens []entity.BirdeyeToken) error {
	f.saved = append(f.saved, tokens)
	return f.saveErr
}

type fakePairsClient struct {
	mu      sync.Mutex
	pairs   []entity.PairData
	failOn  map[int]bool
	batches [][]string
}

func (f *fakePairsClient) GetTokenPairsByAddresses(_ context.Context, addrs []string) ([]entity.PairData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.batches)
	f.batches = append(f.batches, append([]string(nil), addrs...))
	if f.failOn[idx] {
		return nil, errors.New("bad gateway")
	}
	return f.pairs, nil
}

type fakeListing struct {
	mu       sync.Mutex
	results  [][]entity.BirdeyeToken
	useCache []bool
	block    chan struct{}
	active   int
	maxSeen  int
}

func (f *fakeListing) FetchAll(_ context.Context, _ int, useCache bool) []entity.BirdeyeToken {
	f.mu.Lock()
	f.useCache = append(f.useCache, useCache)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	var out []entity.BirdeyeToken
	if len(f.results) > 0 {
		out = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return out
}

type fakeEnrichment struct {
	result    domain.Enrichment
	addresses [][]string
}

func (f *fakeEnrichment) Enrich(_ context.Context, addrs []string) domain.Enrichment {
	f.addresses = append(f.addresses, addrs)
	if f.result.LiquidityByAddress == nil {
		return domain.NewEnrichment()
	}
	return f.result
}

func tok(addr string, vol, liq, mc float64) entity.BirdeyeToken {
	return entity.BirdeyeToken{
		Address:   addr,
		Symbol:    "S" + addr,
		V24hUSD:   entity.Num(vol),
		Liquidity: entity.Num(liq),
		MC:        entity.Num(mc),
	}
}

func f64(v float64) *float64 { return &v }
