package service

import (
	"context"
	"time"

	"token_screener/internal/app/port"
	domain "token_screener/internal/domain/entity"
	"token_screener/internal/entity"
	"token_screener/internal/pkg/retry"
	"token_screener/internal/pkg/utils"
)

// EnrichmentConfig holds the batching settings of the enrichment service.
type EnrichmentConfig struct {
	BatchSize       int
	InterBatchDelay time.Duration
}

// enrichmentServiceImpl implements port.EnrichmentSource
type enrichmentServiceImpl struct {
	client port.PairsClient
	cfg    EnrichmentConfig
	logger port.Logger
}

// NewEnrichmentService creates a new instance of enrichmentServiceImpl.
func NewEnrichmentService(client port.PairsClient, cfg EnrichmentConfig, l port.Logger) port.EnrichmentSource {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	return &enrichmentServiceImpl{
		client: client,
		cfg:    cfg,
		logger: l.With("component", "EnrichmentService"),
	}
}

// Enrich implements port.EnrichmentSource.
func (s *enrichmentServiceImpl) Enrich(ctx context.Context, addresses []string) domain.Enrichment {
	result := domain.NewEnrichment()
	batches := utils.BatchStrings(addresses, s.cfg.BatchSize)

	failedBatches := 0
	for i, batch := range batches {
		if i > 0 {
			if err := utils.SleepContext(ctx, s.cfg.InterBatchDelay); err != nil {
				s.logger.Warn("Enrichment interrupted", "batch", i, "error", err)
				break
			}
		}

		var pairs []entity.PairData
		err := retry.Do(ctx, retry.NoRetry, func(ctx context.Context, _ int) error {
			var err error
			pairs, err = s.client.GetTokenPairsByAddresses(ctx, batch)
			return err
		})
		if err != nil {
			failedBatches++
			s.logger.Warn("Enrichment batch failed, skipping", "batch", i, "size", len(batch), "error", err)
			continue
		}

		mergePairs(result, batch, pairs)
	}

	covered := make(map[string]struct{}, len(result.LiquidityByAddress)+len(result.PriceChangeByAddress))
	for addr := range result.LiquidityByAddress {
		covered[addr] = struct{}{}
	}
	for addr := range result.PriceChangeByAddress {
		covered[addr] = struct{}{}
	}
	s.logger.Info("Enrichment finished",
		"enriched", len(covered),
		"requested", len(addresses),
		"batches", len(batches),
		"failedBatches", failedBatches)
	return result
}

// mergePairs folds one batch of pairs into result. Only addresses of the batch get entries.
// Liquidity is summed over every pair an address appears in; price change comes from the
// most liquid pair with at least one valid timeframe, first seen on ties.
func mergePairs(result domain.Enrichment, batch []string, pairs []entity.PairData) {
	requested := make(map[string]struct{}, len(batch))
	for _, addr := range batch {
		requested[addr] = struct{}{}
	}

	type best struct {
		liquidity float64
		change    entity.PairPriceChange
	}
	bestByAddress := make(map[string]best)

	for _, pair := range pairs {
		liq, hasLiq := pair.LiquidityUSD()
		hasChange := pair.PriceChange.Any()

		for _, addr := range pairAddresses(pair) {
			if _, ok := requested[addr]; !ok {
				continue
			}
			if hasLiq {
				result.LiquidityByAddress[addr] += liq
			}
			if !hasChange {
				continue
			}
			rank := 0.0
			if hasLiq {
				rank = liq
			}
			if cur, ok := bestByAddress[addr]; !ok || rank > cur.liquidity {
				bestByAddress[addr] = best{liquidity: rank, change: pair.PriceChange}
			}
		}
	}

	for addr, b := range bestByAddress {
		result.PriceChangeByAddress[addr] = toPriceChange(b.change)
	}
}

// pairAddresses returns the distinct non-empty token addresses of a pair.
func pairAddresses(pair entity.PairData) []string {
	out := make([]string, 0, 2)
	for _, addr := range []string{pair.BaseToken.Address, pair.QuoteToken.Address} {
		if addr != "" && (len(out) == 0 || out[0] != addr) {
			out = append(out, addr)
		}
	}
	return out
}

func toPriceChange(pc entity.PairPriceChange) domain.PriceChange {
	return domain.PriceChange{
		M5:  flexPtr(pc.M5),
		H1:  flexPtr(pc.H1),
		H6:  flexPtr(pc.H6),
		H24: flexPtr(pc.H24),
	}
}

func flexPtr(n entity.FlexNumber) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
