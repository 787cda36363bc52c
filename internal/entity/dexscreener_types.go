package entity

// DEXTokenPair is the wrapped form of a DEX Screener response. The /tokens/v1 endpoint
// normally returns a bare array of PairData; the client accepts both.
type DEXTokenPair struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairData `json:"pairs"`
}

// PairData contains the fields of a trading pair that the enrichment step reads.
type PairData struct {
	ChainID     string          `json:"chainId"`
	DexID       string          `json:"dexId"`
	URL         string          `json:"url"`
	PairAddress string          `json:"pairAddress"`
	BaseToken   DEXToken        `json:"baseToken"`
	QuoteToken  DEXToken        `json:"quoteToken"`
	PriceUsd    string          `json:"priceUsd"`
	PriceChange PairPriceChange `json:"priceChange"`
	Liquidity   *DEXLiquidity   `json:"liquidity"` // Pointer to handle potential nulls
}

// DEXToken represents a token in a trading pair.
type DEXToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DEXLiquidity represents the liquidity information for a pair.
type DEXLiquidity struct {
	Usd   FlexNumber `json:"usd"`
	Base  FlexNumber `json:"base"`
	Quote FlexNumber `json:"quote"`
}

// PairPriceChange represents price change percentage over different periods.
type PairPriceChange struct {
	M5  FlexNumber `json:"m5"`
	H1  FlexNumber `json:"h1"`
	H6  FlexNumber `json:"h6"`
	H24 FlexNumber `json:"h24"`
}

// Any reports whether at least one timeframe carries a valid value.
func (p PairPriceChange) Any() bool {
	return p.M5.Valid || p.H1.Valid || p.H6.Valid || p.H24.Valid
}

// LiquidityUSD returns the pool's USD liquidity, if present.
func (p PairData) LiquidityUSD() (float64, bool) {
	if p.Liquidity == nil || !p.Liquidity.Usd.Valid {
		return 0, false
	}
	return p.Liquidity.Usd.Value, true
}
