package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk/internal/clients"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/internal/products"
	"github.com/angelmondragon/orderdesk/internal/suggest"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type table struct {
	index map[string]int
	rows  [][]string
	lines []int
}

func readTable(kind Kind, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed csv")
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv is empty")
	}

	t := &table{index: make(map[string]int)}
	for i, raw := range records[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if _, dup := t.index[name]; name != "" && !dup {
			t.index[name] = i
		}
	}
	missing := []string{}
	for _, col := range requiredColumns[kind] {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv header is missing columns").
			WithDetails(map[string]any{"missing": missing})
	}

	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		t.rows = append(t.rows, record)
		t.lines = append(t.lines, i+2)
	}
	return t, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rejected(kind Kind, err error) error {
	return pkgerrors.Rejected(fmt.Sprintf("%s import rejected", kind), err)
}

func rowError(line int, col string, err error) error {
	return &pkgerrors.RowError{Line: line, Column: col, Err: err}
}

// parseID reads an optional id column. Blank means a new record.
func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("must be a uuid")
	}
	return id, nil
}

func parseClients(t *table) ([]clients.CreateClientInput, error) {
	var errs error
	out := make([]clients.CreateClientInput, 0, len(t.rows))
	for i, row := range t.rows {
		line := t.lines[i]
		var rowErrs error

		id, err := parseID(t.get(row, colID))
		if err != nil {
			rowErrs = multierr.Append(rowErrs, rowError(line, colID, err))
		}
		name := t.get(row, colName)
		if name == "" {
			rowErrs = multierr.Append(rowErrs, rowError(line, colName, errors.New("is required")))
		}

		if rowErrs != nil {
			errs = multierr.Append(errs, rowErrs)
			continue
		}
		out = append(out, clients.CreateClientInput{ID: id, Name: name, Contact: t.get(row, colContact)})
	}
	if errs != nil {
		return nil, rejected(KindClients, errs)
	}
	return out, nil
}

func parseProducts(t *table) ([]products.CreateProductInput, error) {
	var errs error
	out := make([]products.CreateProductInput, 0, len(t.rows))
	for i, row := range t.rows {
		line := t.lines[i]
		var rowErrs error

		id, err := parseID(t.get(row, colID))
		if err != nil {
			rowErrs = multierr.Append(rowErrs, rowError(line, colID, err))
		}
		name := t.get(row, colName)
		if name == "" {
			rowErrs = multierr.Append(rowErrs, rowError(line, colName, errors.New("is required")))
		}
		price, err := decimal.NewFromString(t.get(row, colPrice))
		if err != nil {
			rowErrs = multierr.Append(rowErrs, rowError(line, colPrice, errors.New("must be a decimal")))
		}
		byWeight, err := parseBool(t.get(row, colPriceByWeight))
		if err != nil {
			rowErrs = multierr.Append(rowErrs, rowError(line, colPriceByWeight, err))
		}

		if rowErrs != nil {
			errs = multierr.Append(errs, rowErrs)
			continue
		}
		out = append(out, products.CreateProductInput{ID: id, Name: name, Price: price, PriceByWeight: byWeight})
	}
	if errs != nil {
		return nil, rejected(KindProducts, errs)
	}
	return out, nil
}

// parseOrders resolves clients and products by id, falling back to exact name
// when the id column is blank or names a record that no longer exists.
func parseOrders(t *table, loc *time.Location, clientPool, productPool []suggest.Candidate) ([]orders.ImportRow, error) {
	var errs error
	out := make([]orders.ImportRow, 0, len(t.rows))
	for i, row := range t.rows {
		line := t.lines[i]
		var rowErrs error
		fail := func(col string, err error) {
			rowErrs = multierr.Append(rowErrs, rowError(line, col, err))
		}

		id, err := parseID(t.get(row, colID))
		if err != nil {
			fail(colID, err)
		}

		clientID, err := resolveRef(t.get(row, colClientID), t.get(row, colClientName), clientPool)
		if err != nil {
			fail(colClientID, err)
		}
		productID, err := resolveRef(t.get(row, colProductID), t.get(row, colProductName), productPool)
		if err != nil {
			fail(colProductID, err)
		}

		quantity := 0
		if raw := t.get(row, colQuantity); raw != "" {
			quantity, err = strconv.Atoi(raw)
			if err != nil || quantity < 0 {
				fail(colQuantity, errors.New("must be a positive integer"))
			}
		}

		weight := decimal.Zero
		if raw := t.get(row, colWeight); raw != "" {
			weight, err = decimal.NewFromString(raw)
			if err != nil {
				fail(colWeight, errors.New("must be a decimal"))
			}
		}

		var status enums.OrderStatus
		if raw := t.get(row, colStatus); raw != "" {
			status, err = enums.ParseOrderStatus(raw)
			if err != nil {
				fail(colStatus, err)
			}
		}

		deliveryAt, err := parseDelivery(t.get(row, colDeliveryDate), t.get(row, colDeliveryTime), loc)
		if err != nil {
			fail(colDeliveryDate, err)
		}

		if rowErrs != nil {
			errs = multierr.Append(errs, rowErrs)
			continue
		}
		out = append(out, orders.ImportRow{
			ID:         id,
			Line:       line,
			ClientID:   clientID,
			ProductID:  productID,
			Quantity:   quantity,
			Weight:     weight,
			Notes:      t.get(row, colNotes),
			Status:     status,
			DeliveryAt: deliveryAt,
		})
	}
	if errs != nil {
		return nil, rejected(KindOrders, errs)
	}
	return out, nil
}

func resolveRef(rawID, name string, pool []suggest.Candidate) (uuid.UUID, error) {
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return uuid.Nil, errors.New("must be a uuid")
		}
		for _, c := range pool {
			if c.ID == id.String() {
				return id, nil
			}
		}
		if name == "" {
			return uuid.Nil, fmt.Errorf("no record with id %s", id)
		}
	}
	if name == "" {
		return uuid.Nil, errors.New("id or name is required")
	}
	hit, ok := suggest.Resolve(name, "", pool)
	if !ok {
		return uuid.Nil, fmt.Errorf("no record named %q", name)
	}
	return uuid.Parse(hit.ID)
}

func parseDelivery(date, clock string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return time.Time{}, errors.New("is required")
	}
	if clock == "" {
		clock = "00:00"
	}
	at, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected %s and %s", dateLayout, timeLayout)
	}
	return at.UTC(), nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "no", "n":
		return false, nil
	case "yes", "y":
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("must be true or false")
	}
	return v, nil
}
