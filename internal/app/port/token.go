package port

import (
	"context"
	"time"

	domain "token_screener/internal/domain/entity"
	"token_screener/internal/entity"
)

// TokenListClient pages through the primary token list.
type TokenListClient interface {
	GetTokenList(ctx context.Context, offset, limit int) ([]entity.BirdeyeToken, error)
	// BudgetWait is the wait needed before the next request stays within the request budget.
	BudgetWait() time.Duration
}

// TokenCache stores the last primary-source listing between runs.
type TokenCache interface {
	// Load returns the cached records and true only on a fresh, non-empty hit.
	Load() ([]entity.BirdeyeToken, bool)
	Save(tokens []entity.BirdeyeToken) error
}

// ListingSource produces the raw listing for one refresh cycle.
type ListingSource interface {
	// FetchAll returns up to total records, from the cache when useCache is set and the cache
	// is fresh, otherwise from the network. A failed page ends paging; an empty result is
	// returned, never an error.
	FetchAll(ctx context.Context, total int, useCache bool) []entity.BirdeyeToken
}

// PairsClient looks up trading pairs for a batch of token addresses.
type PairsClient interface {
	GetTokenPairsByAddresses(ctx context.Context, tokenAddresses []string) ([]entity.PairData, error)
}

// EnrichmentSource supplements processed tokens with secondary-source data.
type EnrichmentSource interface {
	// Enrich never fails: addresses whose batch failed are simply missing from the result.
	Enrich(ctx context.Context, addresses []string) domain.Enrichment
}
