package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type clientLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type productLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines order submission, reads, rollups and the status machine.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) ([]models.Order, error)
	Import(ctx context.Context, rows []ImportRow) ([]models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
	ProductRollup(ctx context.Context, query RollupQuery) (pagination.Page[ProductCount], error)
	ClientRollup(ctx context.Context) ([]ClientSummary, error)
	Advance(ctx context.Context, input AdvanceInput) AdvanceResult
}

// ServiceParams wires the order service. Logger and Metrics are optional.
type ServiceParams struct {
	Repo     Repository
	Clients  clientLookup
	Products productLookup
	Logger   *logger.Logger
	Metrics  *metrics.OrderMetrics
}

type service struct {
	repo     Repository
	clients  clientLookup
	products productLookup
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		clients:  params.Clients,
		products: params.Products,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

// Submit validates the client and every line before writing anything, then
// stores one order per line in a single atomic batch.
func (s *service) Submit(ctx context.Context, input SubmitInput) ([]models.Order, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client is required").
			WithDetails(map[string]string{"client_id": "is required"})
	}
	if input.DeliveryAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery time is required").
			WithDetails(map[string]string{"delivery_at": "is required"})
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item").
			WithDetails(map[string]string{"items": "must not be empty"})
	}

	client, err := s.loadClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]*models.Product)
	composer := NewComposer()
	for i, line := range input.Items {
		product, err := s.loadProduct(ctx, products, line.ProductID)
		if err != nil {
			return nil, pkgerrors.AddDetail(err, "item", i)
		}
		if _, err := composer.Add(*product, line.Quantity, line.Weight, line.Notes); err != nil {
			return nil, pkgerrors.AddDetail(err, "item", i)
		}
	}

	orders := composer.Orders(*client, input.DeliveryAt)
	if err := s.writeBatch(ctx, orders); err != nil {
		return nil, err
	}
	composer.Reset()

	ctx = s.logg.WithClientID(ctx, client.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "lines", len(orders)), "orders.submitted")
	return orders, nil
}

// Import validates bulk rows against the current clients and products and
// writes them in one batch. Prices are recomputed from the product. Rows
// whose id is already stored are skipped. Every invalid row is reported
// before anything is written.
func (s *service) Import(ctx context.Context, rows []ImportRow) ([]models.Order, error) {
	if len(rows) == 0 {
		return []models.Order{}, nil
	}
	clients := make(map[uuid.UUID]*models.Client)
	products := make(map[uuid.UUID]*models.Product)
	seenIDs := make(map[uuid.UUID]int, len(rows))
	orders := make([]models.Order, 0, len(rows))
	var errs error

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}
		order, skip, err := s.importRow(ctx, row, clients, products)
		if err == nil && row.ID != uuid.Nil {
			if prev, ok := seenIDs[row.ID]; ok {
				err = pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("duplicate order id, first seen on line %d", prev))
			}
			seenIDs[row.ID] = line
		}
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) && !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				return nil, err
			}
			errs = multierr.Append(errs, &pkgerrors.RowError{Line: line, Err: err})
			continue
		}
		if skip {
			continue
		}
		orders = append(orders, order)
	}
	if errs != nil {
		return nil, pkgerrors.Rejected("orders import rejected", errs)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := s.writeBatch(ctx, orders); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "lines", len(orders)), "orders.imported")
	return orders, nil
}

func (s *service) importRow(ctx context.Context, row ImportRow, clients map[uuid.UUID]*models.Client, products map[uuid.UUID]*models.Product) (models.Order, bool, error) {
	if row.ID != uuid.Nil {
		_, err := s.repo.FindByID(ctx, row.ID)
		if err == nil {
			return models.Order{}, true, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return models.Order{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order id")
		}
	}

	client, ok := clients[row.ClientID]
	if !ok {
		loaded, err := s.loadClient(ctx, row.ClientID)
		if err != nil {
			return models.Order{}, false, err
		}
		clients[row.ClientID] = loaded
		client = loaded
	}
	product, err := s.loadProduct(ctx, products, row.ProductID)
	if err != nil {
		return models.Order{}, false, err
	}
	if row.DeliveryAt.IsZero() {
		return models.Order{}, false, pkgerrors.New(pkgerrors.CodeValidation, "delivery time is required").
			WithDetails(map[string]string{"delivery_at": "is required"})
	}
	item, err := NewLineItem(*product, row.Quantity, row.Weight, row.Notes)
	if err != nil {
		return models.Order{}, false, err
	}
	if row.Status != "" {
		if !row.Status.IsValid() {
			return models.Order{}, false, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
				WithDetails(map[string]string{"status": string(row.Status)})
		}
		item.Status = row.Status
	}

	order := toOrder(item, *client, row.DeliveryAt)
	if row.ID != uuid.Nil {
		order.ID = row.ID
	}
	return order, false, nil
}

func (s *service) writeBatch(ctx context.Context, orders []models.Order) error {
	if err := s.repo.CreateBatch(ctx, orders); err != nil {
		s.logg.Error(ctx, "orders.batch_write_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write orders")
	}
	s.metrics.AddSubmitted(len(orders))
	return nil
}

func (s *service) loadClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client is required").
			WithDetails(map[string]string{"client_id": "is required"})
	}
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "client does not exist").
				WithDetails(map[string]string{"client_id": id.String()})
		}
		return nil, err
	}
	return client, nil
}

func (s *service) loadProduct(ctx context.Context, cache map[uuid.UUID]*models.Product, id uuid.UUID) (*models.Product, error) {
	if product, ok := cache[id]; ok {
		return product, nil
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required").
			WithDetails(map[string]string{"product_id": "is required"})
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
				WithDetails(map[string]string{"product_id": id.String()})
		}
		return nil, err
	}
	cache[id] = product
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	orders, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list client orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ProductRollup recomputes the product rollup from every stored order, then
// filters, sorts and pages it.
func (s *service) ProductRollup(ctx context.Context, query RollupQuery) (pagination.Page[ProductCount], error) {
	orders, err := s.List(ctx)
	if err != nil {
		return pagination.Page[ProductCount]{}, err
	}
	rows := AggregateProducts(orders)
	if query.ProductID != uuid.Nil {
		rows = FilterByProduct(query.ProductID, rows)
	}
	rows, err = SortProductCounts(rows, query.SortField, query.Desc)
	if err != nil {
		return pagination.Page[ProductCount]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]string{"sort": query.SortField})
	}
	page, err := pagination.Slice(rows, query.Page)
	if err != nil {
		return pagination.Page[ProductCount]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": query.Page.Cursor})
	}
	return page, nil
}

func (s *service) ClientRollup(ctx context.Context) ([]ClientSummary, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeClients(orders), nil
}
