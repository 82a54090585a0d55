package models

// MarketIndex identifies an index tracked by the market summary
type MarketIndex struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// DefaultMarketIndices are the indices summarized on /stocks/summary-data
var DefaultMarketIndices = []MarketIndex{
	{Symbol: "^GSPC", Name: "S&P 500"},
	{Symbol: "^DJI", Name: "Dow Jones"},
	{Symbol: "^IXIC", Name: "Nasdaq"},
}

// MarketIndexSummary is the latest session move of an index, all figures rounded to 2 decimals
type MarketIndexSummary struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}
