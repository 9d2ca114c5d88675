package models

// Position amounts are decimal strings as reported by the backend.
type Position struct {
	Ticker       string `json:"ticker"`
	Account      string `json:"account"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price,omitempty"`
	Value        string `json:"value,omitempty"`
	PricePending bool   `json:"price_pending"`
	PriceFailed  bool   `json:"price_failed"`
}

type PositionFilters struct {
	Account string
	Date    string
}

type PositionsResponse = APIResponse[[]Position]
