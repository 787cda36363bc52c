package entity

// BirdeyeToken is one record of the Birdeye /defi/tokenlist response. It is also the record
// format of the on-disk token cache.
type BirdeyeToken struct {
	Address           string     `json:"address"`
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name"`
	V24hUSD           FlexNumber `json:"v24hUSD"`
	Liquidity         FlexNumber `json:"liquidity"`
	MC                FlexNumber `json:"mc"`
	PriceChange24h    FlexNumber `json:"priceChange24h"`
	V24hChangePercent FlexNumber `json:"v24hChangePercent"`
}

// BirdeyeTokenListData wraps the token list.
type BirdeyeTokenListData struct {
	Tokens []BirdeyeToken `json:"tokens"`
}

// BirdeyeTokenListResponse is the envelope returned by /defi/tokenlist.
type BirdeyeTokenListResponse struct {
	Success bool                  `json:"success"`
	Data    *BirdeyeTokenListData `json:"data"`
	Error   string                `json:"error,omitempty"`
	Message string                `json:"message,omitempty"`
}
