package dto

// QuoteResponse represents the JSON response from the v7 quote endpoint.
type QuoteResponse struct {
	QuoteResponse struct {
		Result []QuoteResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"quoteResponse"`
}

// QuoteResult carries the fields this service reads.
type QuoteResult struct {
	Symbol    string   `json:"symbol"`
	ShortName string   `json:"shortName"`
	Currency  string   `json:"currency"`
	MarketCap *float64 `json:"marketCap"`
}
