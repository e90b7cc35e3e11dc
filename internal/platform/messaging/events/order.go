package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/ordermanagement/internal/platform/messaging"
	"github.com/shopspring/decimal"
)

// OrderPlaced is emitted once an order and its product associations are persisted.
type OrderPlaced struct {
	OrderID     int64             `json:"orderID"`
	BuyerEmail  string            `json:"buyerEmail"`
	ProductIDs  []int64           `json:"productIDs"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	PlacedAt    time.Time         `json:"placedAt"`
	// Carrier holds the W3C trace context of the placing request.
	Carrier     map[string]string `json:"carrier,omitempty"`
}

func (o OrderPlaced) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlaced) Payload() ([]byte, error) {
	return json.Marshal(o)
}
