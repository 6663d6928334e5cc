package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ddl := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  line_item_id TEXT NOT NULL,
  client_id TEXT NOT NULL,
  client_name TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  weight NUMERIC NOT NULL DEFAULT 0,
  price NUMERIC NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  delivery_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func repoOrder(clientID uuid.UUID, status enums.OrderStatus, deliveryAt time.Time) models.Order {
	return models.Order{
		ID:          uuid.New(),
		LineItemID:  uuid.New(),
		ClientID:    clientID,
		ClientName:  "Ann",
		ProductID:   uuid.New(),
		ProductName: "Cheese",
		Quantity:    2,
		Weight:      decimal.RequireFromString("1.25"),
		Price:       decimal.RequireFromString("30.00"),
		Status:      status,
		DeliveryAt:  deliveryAt.UTC(),
	}
}

func TestRepositoryCreateBatchAllVisible(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	client := uuid.New()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	batch := []models.Order{
		repoOrder(client, enums.OrderStatusIncomplete, at),
		repoOrder(client, enums.OrderStatusIncomplete, at),
		repoOrder(client, enums.OrderStatusIncomplete, at),
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	found, err := repo.FindByID(ctx, batch[1].ID)
	require.NoError(t, err)
	assert.Equal(t, batch[1].LineItemID, found.LineItemID)
	assert.True(t, found.Weight.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, found.DeliveryAt.Equal(at))
	assert.Equal(t, enums.OrderStatusIncomplete, found.Status)
}

func TestRepositoryCreateBatchFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	client := uuid.New()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	existing := repoOrder(uuid.New(), enums.OrderStatusReady, at)
	require.NoError(t, repo.CreateBatch(ctx, []models.Order{existing}))

	third := repoOrder(client, enums.OrderStatusIncomplete, at)
	third.ID = existing.ID
	batch := []models.Order{
		repoOrder(client, enums.OrderStatusIncomplete, at),
		repoOrder(client, enums.OrderStatusIncomplete, at),
		third,
	}
	require.Error(t, repo.CreateBatch(ctx, batch))

	mine, err := repo.ListByClient(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, mine, "partial batch must not be visible")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepositoryListOrdersByDelivery(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	ann, bob := uuid.New(), uuid.New()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	late := repoOrder(ann, enums.OrderStatusIncomplete, base.Add(48*time.Hour))
	early := repoOrder(bob, enums.OrderStatusIncomplete, base)
	mid := repoOrder(ann, enums.OrderStatusReady, base.Add(2*time.Hour))
	require.NoError(t, repo.CreateBatch(ctx, []models.Order{late, early, mid}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{early.ID, mid.ID, late.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

	annOrders, err := repo.ListByClient(ctx, ann)
	require.NoError(t, err)
	require.Len(t, annOrders, 2)
	assert.Equal(t, mid.ID, annOrders[0].ID)
	assert.Equal(t, late.ID, annOrders[1].ID)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	order := repoOrder(uuid.New(), enums.OrderStatusIncomplete, time.Now())
	require.NoError(t, repo.CreateBatch(ctx, []models.Order{order}))

	ok, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusIncomplete, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusIncomplete, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.False(t, ok, "second tap with stale status must not match")

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, found.Status)
}

func TestRepositoryDeleteIfStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupOrdersTestDB(t))
	order := repoOrder(uuid.New(), enums.OrderStatusReady, time.Now())
	require.NoError(t, repo.CreateBatch(ctx, []models.Order{order}))

	ok, err := repo.DeleteIfStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteIfStatus(ctx, order.ID, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.FindByID(ctx, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMongoOrderDocNestsClientAndLine(t *testing.T) {
	order := repoOrder(uuid.New(), enums.OrderStatusReady, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	order.Notes = "back door"

	doc := toDoc(order)
	assert.Equal(t, order.ClientID.String(), doc.Client.ID)
	assert.Equal(t, "Cheese", doc.LineItem.Product.Name)
	assert.Equal(t, "1.25", doc.LineItem.Weight)
	assert.Equal(t, "Ready", doc.LineItem.Status)

	back, err := fromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, order.ID, back.ID)
	assert.Equal(t, order.ProductID, back.ProductID)
	assert.True(t, back.Price.Equal(order.Price))
	assert.Equal(t, "back door", back.Notes)

	doc.LineItem.Weight = ""
	back, err = fromDoc(doc)
	require.NoError(t, err)
	assert.True(t, back.Weight.IsZero(), "missing weight reads as zero")

	doc.Client.ID = "nope"
	_, err = fromDoc(doc)
	assert.Error(t, err)
}
