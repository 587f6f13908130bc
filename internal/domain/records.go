package domain

// Snapshot records delivered by the marketplace sync adapter.
// Each record carries a stable identity field used to align the previous and
// current collections during diffing.

// Order statuses watched for transitions.
const (
	OrderStatusNew       = "new"
	OrderStatusBuyout    = "buyout"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

type Order struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Amount float64 `json:"amount,omitempty"`
}

type Review struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id,omitempty"`
	Rating    int    `json:"rating"`
	Text      string `json:"text,omitempty"`
}

type Stock struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type Sale struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Amount float64 `json:"amount,omitempty"`
}

// SyncBatch is the previous/current snapshot pair for every entity type,
// as produced by one sync cycle for one user/cabinet.
type SyncBatch struct {
	PreviousOrders  []Order  `json:"previous_orders"`
	CurrentOrders   []Order  `json:"current_orders"`
	PreviousReviews []Review `json:"previous_reviews"`
	CurrentReviews  []Review `json:"current_reviews"`
	PreviousStocks  []Stock  `json:"previous_stocks"`
	CurrentStocks   []Stock  `json:"current_stocks"`
	PreviousSales   []Sale   `json:"previous_sales"`
	CurrentSales    []Sale   `json:"current_sales"`
}
