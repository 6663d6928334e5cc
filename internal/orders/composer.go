package orders

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 500

// ProductRef is the product snapshot carried on a line item.
type ProductRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LineItem is one product entry of an order that has not been submitted yet.
type LineItem struct {
	ID       uuid.UUID         `json:"id"`
	Product  ProductRef        `json:"product"`
	Quantity int               `json:"quantity"`
	Weight   decimal.Decimal   `json:"weight"`
	Price    decimal.Decimal   `json:"price"`
	Notes    string            `json:"notes"`
	Status   enums.OrderStatus `json:"status"`
}

// LinePrice is the product price times quantity, times weight when the
// product is sold by weight, rounded to cents.
func LinePrice(product models.Product, quantity int, weight decimal.Decimal) decimal.Decimal {
	price := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	if product.PriceByWeight {
		price = price.Mul(weight)
	}
	return price.Round(2)
}

// NewLineItem validates a line against its product. A zero quantity means one.
// Weight is required for by-weight products and forced to zero otherwise.
func NewLineItem(product models.Product, quantity int, weight decimal.Decimal, notes string) (LineItem, error) {
	if product.ID == uuid.Nil {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required").
			WithDetails(map[string]string{"product_id": "is required"})
	}
	if quantity < 0 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"quantity": "must be > 0"})
	}
	if quantity == 0 {
		quantity = 1
	}

	if product.PriceByWeight {
		if !weight.IsPositive() {
			return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is sold by weight", product.Name)).
				WithDetails(map[string]string{"weight": "must be > 0"})
		}
		weight = weight.Round(2)
	} else {
		weight = decimal.Zero
	}

	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "notes too long").
			WithDetails(map[string]string{"notes": fmt.Sprintf("must be at most %d", maxNotesLength)})
	}

	return LineItem{
		ID:       uuid.New(),
		Product:  ProductRef{ID: product.ID, Name: product.Name},
		Quantity: quantity,
		Weight:   weight,
		Price:    LinePrice(product, quantity, weight),
		Notes:    notes,
		Status:   enums.OrderStatusIncomplete,
	}, nil
}

// Composer accumulates line items for one client before submission.
// It is not safe for concurrent use.
type Composer struct {
	items []LineItem
}

func NewComposer() *Composer {
	return &Composer{}
}

// Add validates and appends a line item.
func (c *Composer) Add(product models.Product, quantity int, weight decimal.Decimal, notes string) (LineItem, error) {
	item, err := NewLineItem(product, quantity, weight, notes)
	if err != nil {
		return LineItem{}, err
	}
	c.items = append(c.items, item)
	return item, nil
}

// Remove drops the line with the given id and reports whether it existed.
func (c *Composer) Remove(id uuid.UUID) bool {
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the pending lines in insertion order.
func (c *Composer) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Composer) Len() int {
	return len(c.items)
}

func (c *Composer) Reset() {
	c.items = nil
}

// Orders turns every pending line into one order document for client,
// all sharing the same delivery slot.
func (c *Composer) Orders(client models.Client, deliveryAt time.Time) []models.Order {
	out := make([]models.Order, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, toOrder(item, client, deliveryAt))
	}
	return out
}

func toOrder(item LineItem, client models.Client, deliveryAt time.Time) models.Order {
	return models.Order{
		ID:          uuid.New(),
		LineItemID:  item.ID,
		ClientID:    client.ID,
		ClientName:  client.Name,
		ProductID:   item.Product.ID,
		ProductName: item.Product.Name,
		Quantity:    item.Quantity,
		Weight:      item.Weight,
		Price:       item.Price,
		Notes:       item.Notes,
		Status:      item.Status,
		DeliveryAt:  deliveryAt.UTC(),
	}
}
