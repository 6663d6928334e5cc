package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
)

// Export writes every record of kind as CSV with a header row.
func (s *Service) Export(ctx context.Context, kind Kind, w io.Writer) (int, error) {
	rows, err := s.exportRows(ctx, kind)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns[kind]); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("write csv rows: %w", err)
	}
	return len(rows), nil
}

func (s *Service) exportRows(ctx context.Context, kind Kind) ([][]string, error) {
	switch kind {
	case KindClients:
		list, err := s.clients.List(ctx)
		if err != nil {
			return nil, err
		}
		return clientRows(list), nil
	case KindProducts:
		list, err := s.products.List(ctx)
		if err != nil {
			return nil, err
		}
		return productRows(list), nil
	case KindOrders:
		list, err := s.orders.List(ctx)
		if err != nil {
			return nil, err
		}
		return orderRows(list, s.loc), nil
	default:
		return nil, unknownKind(kind)
	}
}

func clientRows(list []models.Client) [][]string {
	out := make([][]string, 0, len(list))
	for _, c := range list {
		out = append(out, []string{c.ID.String(), c.Name, c.Contact})
	}
	return out
}

func productRows(list []models.Product) [][]string {
	out := make([][]string, 0, len(list))
	for _, p := range list {
		out = append(out, []string{
			p.ID.String(),
			p.Name,
			p.Price.StringFixed(2),
			strconv.FormatBool(p.PriceByWeight),
		})
	}
	return out
}

func orderRows(list []models.Order, loc *time.Location) [][]string {
	out := make([][]string, 0, len(list))
	for _, o := range list {
		local := o.DeliveryAt.In(loc)
		out = append(out, []string{
			o.ID.String(),
			o.ClientID.String(),
			o.ClientName,
			o.ProductID.String(),
			o.ProductName,
			strconv.Itoa(o.Quantity),
			o.Weight.StringFixed(2),
			o.Price.StringFixed(2),
			o.Notes,
			string(o.Status),
			local.Format(dateLayout),
			local.Format(timeLayout),
		})
	}
	return out
}
