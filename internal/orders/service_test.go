package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc          Service
	repo         *memoryRepo
	client       models.Client
	productCalls int
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:   newMemoryRepo(),
		client: models.Client{ID: uuid.New(), Name: "Ann"},
	}
	svc, err := NewService(ServiceParams{
		Repo:    f.repo,
		Clients: stubClients{clients: map[uuid.UUID]models.Client{f.client.ID: f.client}},
		Products: stubProducts{
			products: map[uuid.UUID]models.Product{bread.ID: bread, cheese.ID: cheese},
			calls:    &f.productCalls,
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

var delivery = time.Date(2026, 6, 3, 7, 30, 0, 0, time.UTC)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: newMemoryRepo()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: newMemoryRepo(), Clients: stubClients{}})
	assert.Error(t, err)
}

func TestSubmitWritesOneDocumentPerLine(t *testing.T) {
	f := newServiceFixture(t)

	orders, err := f.svc.Submit(context.Background(), SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items: []LineInput{
			{ProductID: bread.ID, Quantity: 2},
			{ProductID: cheese.ID, Quantity: 1, Weight: decimal.RequireFromString("0.75")},
			{ProductID: bread.ID},
		},
	})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, 1, f.repo.batches)
	assert.Len(t, f.repo.orders, 3)
	assert.Equal(t, 2, f.productCalls, "products are looked up once each")

	for _, o := range orders {
		assert.Equal(t, f.client.ID, o.ClientID)
		assert.Equal(t, enums.OrderStatusIncomplete, o.Status)
		assert.True(t, o.DeliveryAt.Equal(delivery))
	}
	assert.Equal(t, "5.00", orders[0].Price.StringFixed(2))
	assert.Equal(t, "9.00", orders[1].Price.StringFixed(2))
	assert.Equal(t, 1, orders[2].Quantity)
}

func TestSubmitValidatesBeforeWriting(t *testing.T) {
	cases := []struct {
		name  string
		input func(f *serviceFixture) SubmitInput
	}{
		{"missing client", func(f *serviceFixture) SubmitInput {
			return SubmitInput{DeliveryAt: delivery, Items: []LineInput{{ProductID: bread.ID}}}
		}},
		{"unknown client", func(f *serviceFixture) SubmitInput {
			return SubmitInput{ClientID: uuid.New(), DeliveryAt: delivery, Items: []LineInput{{ProductID: bread.ID}}}
		}},
		{"missing delivery", func(f *serviceFixture) SubmitInput {
			return SubmitInput{ClientID: f.client.ID, Items: []LineInput{{ProductID: bread.ID}}}
		}},
		{"no items", func(f *serviceFixture) SubmitInput {
			return SubmitInput{ClientID: f.client.ID, DeliveryAt: delivery}
		}},
		{"unknown product", func(f *serviceFixture) SubmitInput {
			return SubmitInput{ClientID: f.client.ID, DeliveryAt: delivery, Items: []LineInput{{ProductID: uuid.New()}}}
		}},
		{"by-weight without weight", func(f *serviceFixture) SubmitInput {
			return SubmitInput{ClientID: f.client.ID, DeliveryAt: delivery, Items: []LineInput{
				{ProductID: bread.ID},
				{ProductID: cheese.ID, Quantity: 1},
			}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t)
			_, err := f.svc.Submit(context.Background(), tc.input(f))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			assert.Zero(t, f.repo.batches)
			assert.Empty(t, f.repo.orders)
		})
	}
}

func TestSubmitReportsFailingItemIndex(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items:      []LineInput{{ProductID: bread.ID}, {ProductID: cheese.ID}},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["item"])
}

func TestSubmitBatchFailureWritesNothing(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.batchErr = errors.New("write aborted")

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items:      []LineInput{{ProductID: bread.ID}, {ProductID: bread.ID}, {ProductID: bread.ID}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, f.repo.orders)
}

func TestImportKeepsStatusAndRecomputesPrice(t *testing.T) {
	f := newServiceFixture(t)

	orders, err := f.svc.Import(context.Background(), []ImportRow{
		{ClientID: f.client.ID, ProductID: bread.ID, Quantity: 4, Status: enums.OrderStatusDelivered, DeliveryAt: delivery},
		{ClientID: f.client.ID, ProductID: cheese.ID, Quantity: 1, Weight: decimal.NewFromInt(2), DeliveryAt: delivery},
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, enums.OrderStatusDelivered, orders[0].Status)
	assert.Equal(t, "10.00", orders[0].Price.StringFixed(2))
	assert.Equal(t, enums.OrderStatusIncomplete, orders[1].Status)
	assert.Equal(t, 1, f.repo.batches)
}

func TestImportRejectsBadRows(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Import(context.Background(), []ImportRow{
		{ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
		{ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, Status: "Deleted", DeliveryAt: delivery},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.repo.batches)

	_, err = f.svc.Import(context.Background(), []ImportRow{
		{ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestImportReportsEveryBadRowByLine(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Import(context.Background(), []ImportRow{
		{Line: 2, ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
		{Line: 3, ClientID: uuid.New(), ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
		{Line: 5, ClientID: f.client.ID, ProductID: uuid.New(), Quantity: 1, DeliveryAt: delivery},
		{ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1},
	})
	require.Error(t, err)
	assert.Zero(t, f.repo.batches, "nothing written when a row fails")

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, details["count"])
	msgs, ok := details["errors"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{
		"line 3: client does not exist",
		"line 5: product does not exist",
		"line 4: delivery time is required",
	}, msgs)

	var rowErr *pkgerrors.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Line)
}

func TestImportKeepsIDsAndSkipsStoredOrders(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	kept := uuid.New()
	rows := []ImportRow{
		{ID: kept, Line: 2, ClientID: f.client.ID, ProductID: bread.ID, Quantity: 2, DeliveryAt: delivery},
	}

	first, err := f.svc.Import(ctx, rows)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, kept, first[0].ID)

	again, err := f.svc.Import(ctx, rows)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, f.repo.orders, 1)
	assert.Equal(t, 1, f.repo.batches)
}

func TestImportRejectsRepeatedIDsAndStopsOnStoreFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := f.svc.Import(ctx, []ImportRow{
		{ID: id, Line: 2, ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
		{ID: id, Line: 3, ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders import rejected")
	msgs := pkgerrors.As(err).Details().(map[string]any)["errors"].([]string)
	assert.Equal(t, []string{"line 3: duplicate order id, first seen on line 2"}, msgs)

	f.repo.findErr = errors.New("store down")
	_, err = f.svc.Import(ctx, []ImportRow{
		{ID: uuid.New(), ClientID: f.client.ID, ProductID: bread.ID, Quantity: 1, DeliveryAt: delivery},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestGetAndListByClient(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	orders, err := f.svc.Submit(ctx, SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items:      []LineInput{{ProductID: bread.ID}},
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, orders[0].ID, got.ID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	mine, err := f.svc.ListByClient(ctx, f.client.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.svc.ListByClient(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestProductRollupFiltersSortsAndPages(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items: []LineInput{
			{ProductID: bread.ID, Quantity: 2},
			{ProductID: bread.ID, Quantity: 3},
			{ProductID: cheese.ID, Quantity: 1, Weight: decimal.NewFromInt(1)},
			{ProductID: cheese.ID, Quantity: 1, Weight: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)

	all, err := f.svc.ProductRollup(ctx, RollupQuery{SortField: "quantity", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "Bread", all.Items[0].Name)
	assert.Equal(t, 5, all.Items[0].Quantity)

	onlyCheese, err := f.svc.ProductRollup(ctx, RollupQuery{ProductID: cheese.ID, Page: pagination.Params{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, onlyCheese.Total)
	require.Len(t, onlyCheese.Items, 1)
	assert.NotEmpty(t, onlyCheese.NextCursor)
	assert.Equal(t, "3.00", onlyCheese.Items[0].WeightTotal.StringFixed(2))

	next, err := f.svc.ProductRollup(ctx, RollupQuery{ProductID: cheese.ID, Page: pagination.Params{Limit: 1, Cursor: onlyCheese.NextCursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.ProductRollup(ctx, RollupQuery{SortField: "colour"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.ProductRollup(ctx, RollupQuery{Page: pagination.Params{Cursor: "!!"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestClientRollup(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{
		ClientID:   f.client.ID,
		DeliveryAt: delivery,
		Items:      []LineInput{{ProductID: bread.ID, Quantity: 2}, {ProductID: bread.ID}},
	})
	require.NoError(t, err)

	summaries, err := f.svc.ClientRollup(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Ann", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].Orders)
	assert.Equal(t, 3, summaries[0].Quantity)
	assert.Equal(t, "7.50", summaries[0].Total.StringFixed(2))
}
