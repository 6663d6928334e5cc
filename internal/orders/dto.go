package orders

import (
	"time"

	"github.com/angelmondragon/orderdesk/pkg/enums"
	"github.com/angelmondragon/orderdesk/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one requested product line of a submission.
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	Weight    decimal.Decimal `json:"weight"`
	Notes     string          `json:"notes" validate:"max=500"`
}

// SubmitInput binds lines to a client and one delivery slot.
type SubmitInput struct {
	ClientID   uuid.UUID   `json:"client_id" validate:"required"`
	DeliveryAt time.Time   `json:"delivery_at" validate:"required"`
	Items      []LineInput `json:"items" validate:"required,min=1,dive"`
}

// ImportRow is an order read from a bulk file. Unlike a submission it may
// already carry a status and its own id. Line is the source line used in
// error reports; zero falls back to the 1-based row position.
type ImportRow struct {
	ID         uuid.UUID
	Line       int
	ClientID   uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Weight     decimal.Decimal
	Notes      string
	Status     enums.OrderStatus
	DeliveryAt time.Time
}

// RollupQuery selects, orders and pages product rollup rows. A nil ProductID
// keeps every product.
type RollupQuery struct {
	ProductID uuid.UUID
	SortField string
	Desc      bool
	Page      pagination.Params
}
