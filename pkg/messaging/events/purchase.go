package events

import (
	"encoding/json"
	"time"

	"github.com/akrylov/marketplace/pkg/messaging"
	"github.com/google/uuid"
)

// ProductPurchasedEvent is emitted after a successful stock decrement.
type ProductPurchasedEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	Quantity   int32     `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p ProductPurchasedEvent) Subject() string {
	return messaging.ProductsPurchasedSubject
}

func (p ProductPurchasedEvent) Payload() ([]byte, error) {
	return json.Marshal(p)
}
