package subscription

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a one-time purchase.
// Pending → processing → shipped → delivered on the happy path; canceled and
// failed are terminal. Transitions after creation are admin- or
// webhook-driven and out of this core's scope.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCanceled   OrderStatus = "canceled"
	OrderFailed     OrderStatus = "failed"
)

// OrderItem is a purchased line item, priced in minor units.
type OrderItem struct {
	ProductRef      string
	Quantity        int64
	PriceMinorUnits int64
}

// Order records a completed one-time checkout. ExternalPaymentRef is the
// processor's payment identifier and is unique, making order creation safe
// to replay on webhook redelivery.
type Order struct {
	ID                 uuid.UUID
	UserID             string
	ExternalPaymentRef string
	TotalMinorUnits    int64
	Currency           string
	Status             OrderStatus
	Items              []OrderItem
	CreatedAt          time.Time
}
