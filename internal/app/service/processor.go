package service

import (
	"strings"

	domain "token_screener/internal/domain/entity"
	"token_screener/internal/entity"
	"token_screener/internal/pkg/utils"
)

// Performance score weights.
const (
	weightVolumeLiquidity = 0.4
	weightVolumeMC        = 0.4
	weightLiquidityMC     = 0.2
)

// ratioDefault is returned by every ratio whose inputs cannot produce a finite value.
const ratioDefault = 0

// ProcessTokenList converts listing records into ProcessedTokens, preserving order.
func ProcessTokenList(records []entity.BirdeyeToken, suspiciousSuffix string) []domain.ProcessedToken {
	out := make([]domain.ProcessedToken, 0, len(records))
	for _, r := range records {
		out = append(out, ProcessToken(r, suspiciousSuffix))
	}
	return out
}

// ProcessToken derives one ProcessedToken. Absent or non-finite numbers become 0.
func ProcessToken(r entity.BirdeyeToken, suspiciousSuffix string) domain.ProcessedToken {
	t := domain.ProcessedToken{
		Address:           r.Address,
		Symbol:            r.Symbol,
		Name:              r.Name,
		Volume:            utils.FiniteOrDefault(r.V24hUSD.Or(0), 0),
		Liquidity:         utils.FiniteOrDefault(r.Liquidity.Or(0), 0),
		MC:                utils.FiniteOrDefault(r.MC.Or(0), 0),
		PriceChange24h:    utils.FiniteOrDefault(r.PriceChange24h.Or(0), 0),
		V24hChangePercent: utils.FiniteOrDefault(r.V24hChangePercent.Or(0), 0),
		IsPump:            hasSuspiciousSuffix(r.Address, suspiciousSuffix),
	}
	RecomputeRatios(&t)
	return t
}

// RecomputeRatios re-derives the three ratios and the performance score from the token's
// current volume, liquidity and market cap. Nothing else is touched.
func RecomputeRatios(t *domain.ProcessedToken) {
	t.VolumeLiquidityRatio = utils.SafeDivision(t.Volume, t.Liquidity, ratioDefault)
	t.VolumeMCRatio = utils.SafeDivision(t.Volume, t.MC, ratioDefault)
	t.LiquidityMCRatio = utils.SafeDivision(t.Liquidity, t.MC, ratioDefault)

	t.Performance = utils.FiniteOrDefault(
		weightVolumeLiquidity*t.VolumeLiquidityRatio+
			weightVolumeMC*t.VolumeMCRatio+
			weightLiquidityMC*t.LiquidityMCRatio,
		ratioDefault)
}

func hasSuspiciousSuffix(address, suffix string) bool {
	if suffix == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(address), strings.ToLower(suffix))
}

// DedupeByAddress keeps the first token for every address, preserving order.
func DedupeByAddress(tokens []domain.ProcessedToken) []domain.ProcessedToken {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]domain.ProcessedToken, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t.Address]; ok {
			continue
		}
		seen[t.Address] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ApplyEnrichment merges secondary-source data into tokens in place. Price-change fields are
// replaced one by one when present and finite; liquidity is replaced when finite and
// non-negative, after which the dependent ratios are recomputed. Returns the number of
// tokens that received any data.
func ApplyEnrichment(tokens []domain.ProcessedToken, e domain.Enrichment) int {
	enriched := 0
	for i := range tokens {
		t := &tokens[i]
		touched := false

		if pc, ok := e.PriceChangeByAddress[t.Address]; ok {
			touched = mergeField(&t.PriceChangeM5, pc.M5) || touched
			touched = mergeField(&t.PriceChangeH1, pc.H1) || touched
			touched = mergeField(&t.PriceChangeH6, pc.H6) || touched
			touched = mergeField(&t.PriceChange24h, pc.H24) || touched
		}

		if liq, ok := e.LiquidityByAddress[t.Address]; ok && utils.IsFinite(liq) && liq >= 0 {
			t.Liquidity = liq
			RecomputeRatios(t)
			touched = true
		}

		if touched {
			enriched++
		}
	}
	return enriched
}

func mergeField(dst *float64, v *float64) bool {
	if v == nil || !utils.IsFinite(*v) {
		return false
	}
	*dst = *v
	return true
}
