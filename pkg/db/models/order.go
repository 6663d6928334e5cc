package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk/pkg/enums"
)

// Order is one persisted line item bound to a client and a delivery slot.
// Client and product names are denormalized at submit time.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LineItemID  uuid.UUID         `gorm:"column:line_item_id;type:uuid;not null" json:"line_item_id"`
	ClientID    uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index:idx_orders_client" json:"client_id"`
	ClientName  string            `gorm:"column:client_name;not null" json:"client_name"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName string            `gorm:"column:product_name;not null" json:"product_name"`
	Quantity    int               `gorm:"column:quantity;not null" json:"quantity"`
	Weight      decimal.Decimal   `gorm:"column:weight;type:numeric(12,2);not null" json:"weight"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Notes       string            `gorm:"column:notes;not null;default:''" json:"notes"`
	Status      enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	DeliveryAt  time.Time         `gorm:"column:delivery_at;not null;index:idx_orders_delivery_at" json:"delivery_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Order) TableName() string { return "orders" }
