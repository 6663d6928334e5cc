package transfer

import (
	"fmt"
	"strings"
)

// Kind names a record collection that can be moved as CSV.
type Kind string

const (
	KindClients  Kind = "clients"
	KindProducts Kind = "products"
	KindOrders   Kind = "orders"
)

// Kinds lists every transferable collection in backup order.
var Kinds = []Kind{KindClients, KindProducts, KindOrders}

func (k Kind) String() string {
	return string(k)
}

func ParseKind(value string) (Kind, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	trimmed = strings.TrimSuffix(trimmed, ".csv")
	for _, k := range Kinds {
		if string(k) == trimmed {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown transfer kind %q", value)
}

const (
	colID            = "id"
	colName          = "name"
	colContact       = "contact"
	colPrice         = "price"
	colPriceByWeight = "price_by_weight"
	colClientID      = "client_id"
	colClientName    = "client_name"
	colProductID     = "product_id"
	colProductName   = "product_name"
	colQuantity      = "quantity"
	colWeight        = "weight"
	colNotes         = "notes"
	colStatus        = "status"
	colDeliveryDate  = "delivery_date"
	colDeliveryTime  = "delivery_time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Columns is the fixed export projection per kind, in output order.
var Columns = map[Kind][]string{
	KindClients:  {colID, colName, colContact},
	KindProducts: {colID, colName, colPrice, colPriceByWeight},
	KindOrders: {
		colID, colClientID, colClientName, colProductID, colProductName,
		colQuantity, colWeight, colPrice, colNotes, colStatus,
		colDeliveryDate, colDeliveryTime,
	},
}

// requiredColumns must be present in an import header.
var requiredColumns = map[Kind][]string{
	KindClients:  {colName},
	KindProducts: {colName, colPrice},
	KindOrders:   {colQuantity, colDeliveryDate, colDeliveryTime},
}
