package orders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCount is one rollup row: a product at a given weight and status.
// WeightTotal is summed over every order for the product name, not just this row.
type ProductCount struct {
	ProductID   uuid.UUID         `json:"product_id"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	Weight      decimal.Decimal   `json:"weight"`
	WeightTotal decimal.Decimal   `json:"weight_total"`
	Status      enums.OrderStatus `json:"status"`
}

// ClientSummary rolls every order of one client into totals.
type ClientSummary struct {
	ClientID uuid.UUID       `json:"client_id"`
	Name     string          `json:"name"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type groupKey struct {
	productID uuid.UUID
	weight    string
	status    enums.OrderStatus
}

// AggregateProducts folds orders into rows keyed by (product, weight, status),
// in order of first appearance. Quantity is per row; WeightTotal is
// backfilled per product name once the fold is done. The input is not modified.
func AggregateProducts(orders []models.Order) []ProductCount {
	out := make([]ProductCount, 0)
	index := make(map[groupKey]int)
	weightByName := make(map[string]decimal.Decimal)

	for _, o := range orders {
		key := groupKey{productID: o.ProductID, weight: o.Weight.StringFixed(2), status: o.Status}
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, ProductCount{
				ProductID: o.ProductID,
				Name:      o.ProductName,
				Weight:    o.Weight,
				Status:    o.Status,
			})
		}
		out[pos].Quantity += o.Quantity

		contribution := o.Weight.Mul(decimal.NewFromInt(int64(o.Quantity)))
		weightByName[o.ProductName] = weightByName[o.ProductName].Add(contribution)
	}

	for i := range out {
		out[i].WeightTotal = weightByName[out[i].Name]
	}
	return out
}

// FilterByProduct keeps the already aggregated rows for one product.
func FilterByProduct(productID uuid.UUID, rows []ProductCount) []ProductCount {
	out := make([]ProductCount, 0)
	for _, row := range rows {
		if row.ProductID == productID {
			out = append(out, row)
		}
	}
	return out
}

// SummarizeClients totals orders per client in order of first appearance.
func SummarizeClients(orders []models.Order) []ClientSummary {
	out := make([]ClientSummary, 0)
	index := make(map[uuid.UUID]int)
	for _, o := range orders {
		pos, ok := index[o.ClientID]
		if !ok {
			pos = len(out)
			index[o.ClientID] = pos
			out = append(out, ClientSummary{ClientID: o.ClientID, Name: o.ClientName})
		}
		out[pos].Orders++
		out[pos].Quantity += o.Quantity
		out[pos].Total = out[pos].Total.Add(o.Price)
	}
	return out
}

const (
	SortByName        = "name"
	SortByQuantity    = "quantity"
	SortByWeight      = "weight"
	SortByWeightTotal = "weight_total"
	SortByStatus      = "status"
)

// SortProductCounts returns a stably sorted copy of rows. An empty field keeps
// the input order.
func SortProductCounts(rows []ProductCount, field string, desc bool) ([]ProductCount, error) {
	out := make([]ProductCount, len(rows))
	copy(out, rows)

	var compare func(a, b ProductCount) int
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "":
		return out, nil
	case SortByName:
		compare = func(a, b ProductCount) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortByQuantity:
		compare = func(a, b ProductCount) int { return a.Quantity - b.Quantity }
	case SortByWeight:
		compare = func(a, b ProductCount) int { return a.Weight.Cmp(b.Weight) }
	case SortByWeightTotal, "weighttotal":
		compare = func(a, b ProductCount) int { return a.WeightTotal.Cmp(b.WeightTotal) }
	case SortByStatus:
		compare = func(a, b ProductCount) int { return strings.Compare(string(a.Status), string(b.Status)) }
	default:
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return compare(out[i], out[j]) > 0
		}
		return compare(out[i], out[j]) < 0
	})
	return out, nil
}
