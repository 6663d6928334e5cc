package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. By-weight products multiply their price by the
// weight recorded on each order line.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"column:name;not null;uniqueIndex:idx_products_name" json:"name"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	PriceByWeight bool            `gorm:"column:price_by_weight;not null;default:false" json:"price_by_weight"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Product) TableName() string { return "products" }
