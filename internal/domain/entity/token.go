package entity

// ProcessedToken is a listing record with its derived metrics, as served to the dashboard.
type ProcessedToken struct {
	Address              string  `json:"address"`
	Symbol               string  `json:"symbol"`
	Name                 string  `json:"name"`
	Volume               float64 `json:"volume"`
	Liquidity            float64 `json:"liquidity"`
	MC                   float64 `json:"mc"`
	PriceChangeM5        float64 `json:"price_change_m5"`
	PriceChangeH1        float64 `json:"price_change_h1"`
	PriceChangeH6        float64 `json:"price_change_h6"`
	PriceChange24h       float64 `json:"price_change_24h"`
	V24hChangePercent    float64 `json:"v24hChangePercent"`
	VolumeLiquidityRatio float64 `json:"volume_liquidity_ratio"`
	VolumeMCRatio        float64 `json:"volume_mc_ratio"`
	LiquidityMCRatio     float64 `json:"liquidity_mc_ratio"`
	Performance          float64 `json:"performance"`
	IsPump               bool    `json:"is_pump"`
}

// PriceChange holds per-timeframe price change percentages; nil means not reported.
type PriceChange struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

// Enrichment is the per-address result of the secondary source.
type Enrichment struct {
	PriceChangeByAddress map[string]PriceChange
	LiquidityByAddress   map[string]float64
}

// NewEnrichment returns an Enrichment with empty maps.
func NewEnrichment() Enrichment {
	return Enrichment{
		PriceChangeByAddress: make(map[string]PriceChange),
		LiquidityByAddress:   make(map[string]float64),
	}
}
