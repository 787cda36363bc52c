package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_screener/internal/entity"
	"token_screener/internal/pkg/logger"
)

func pair(base, quote string, liq *float64, change entity.PairPriceChange) entity.PairData {
	p := entity.PairData{
		BaseToken:   entity.DEXToken{Address: base},
		QuoteToken:  entity.DEXToken{Address: quote},
		PriceChange: change,
	}
	if liq != nil {
		p.Liquidity = &entity.DEXLiquidity{Usd: entity.Num(*liq)}
	}
	return p
}

func newTestEnrichment(client *fakePairsClient) *enrichmentServiceImpl {
	return NewEnrichmentService(client, EnrichmentConfig{BatchSize: 30}, logger.Nop()).(*enrichmentServiceImpl)
}

func TestEnrich_SumsLiquidityAcrossPairs(t *testing.T) {
	client := &fakePairsClient{pairs: []entity.PairData{
		pair("X", "SOL", f64(100), entity.PairPriceChange{}),
		pair("USDC", "X", f64(50), entity.PairPriceChange{}),
	}}

	got := newTestEnrichment(client).Enrich(context.Background(), []string{"X"})
	assert.Equal(t, 150.0, got.LiquidityByAddress["X"])
	assert.NotContains(t, got.LiquidityByAddress, "SOL")
	assert.NotContains(t, got.PriceChangeByAddress, "X")
}

func TestEnrich_PicksMostLiquidPairForPriceChange(t *testing.T) {
	client := &fakePairsClient{pairs: []entity.PairData{
		pair("X", "SOL", f64(100), entity.PairPriceChange{H24: entity.Num(5)}),
		pair("X", "USDC", f64(200), entity.PairPriceChange{H24: entity.Num(-3), M5: entity.Num(0.5)}),
		pair("X", "BONK", f64(500), entity.PairPriceChange{}),
	}}

	got := newTestEnrichment(client).Enrich(context.Background(), []string{"X"})
	pc, ok := got.PriceChangeByAddress["X"]
	require.True(t, ok)
	require.NotNil(t, pc.H24)
	assert.Equal(t, -3.0, *pc.H24)
	require.NotNil(t, pc.M5)
	assert.Equal(t, 0.5, *pc.M5)
	assert.Nil(t, pc.H1)
	assert.Equal(t, 800.0, got.LiquidityByAddress["X"])
}

func TestEnrich_TiesAndMissingLiquidity(t *testing.T) {
	client := &fakePairsClient{pairs: []entity.PairData{
		pair("X", "SOL", nil, entity.PairPriceChange{H1: entity.Num(1)}),
		pair("X", "USDC", nil, entity.PairPriceChange{H1: entity.Num(2)}),
		pair("Y", "Y", f64(10), entity.PairPriceChange{H6: entity.Num(4)}),
	}}

	got := newTestEnrichment(client).Enrich(context.Background(), []string{"X", "Y"})
	assert.Equal(t, 1.0, *got.PriceChangeByAddress["X"].H1)
	assert.NotContains(t, got.LiquidityByAddress, "X")
	assert.Equal(t, 10.0, got.LiquidityByAddress["Y"])
}

func TestEnrich_AddressWithoutPairsHasNoEntry(t *testing.T) {
	client := &fakePairsClient{pairs: []entity.PairData{
		pair("X", "SOL", f64(100), entity.PairPriceChange{H24: entity.Num(1)}),
	}}

	got := newTestEnrichment(client).Enrich(context.Background(), []string{"X", "LONELY"})
	assert.NotContains(t, got.LiquidityByAddress, "LONELY")
	assert.NotContains(t, got.PriceChangeByAddress, "LONELY")
}

func TestEnrich_BatchesAndFailedBatchIsEmpty(t *testing.T) {
	addrs := make([]string, 65)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("tok%02d", i)
	}
	client := &fakePairsClient{
		failOn: map[int]bool{1: true},
		pairs: []entity.PairData{
			pair("tok00", "SOL", f64(1), entity.PairPriceChange{}),
			pair("tok40", "SOL", f64(2), entity.PairPriceChange{}),
			pair("tok64", "SOL", f64(3), entity.PairPriceChange{}),
		},
	}

	got := newTestEnrichment(client).Enrich(context.Background(), addrs)

	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 30)
	assert.Len(t, client.batches[1], 30)
	assert.Len(t, client.batches[2], 5)

	assert.Equal(t, 1.0, got.LiquidityByAddress["tok00"])
	assert.NotContains(t, got.LiquidityByAddress, "tok40")
	assert.Equal(t, 3.0, got.LiquidityByAddress["tok64"])
}

func TestEnrich_Empty(t *testing.T) {
	client := &fakePairsClient{}
	got := newTestEnrichment(client).Enrich(context.Background(), nil)
	assert.Empty(t, client.batches)
	assert.Empty(t, got.LiquidityByAddress)
	assert.Empty(t, got.PriceChangeByAddress)
}
