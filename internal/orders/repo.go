package orders

import (
	"context"
	"errors"

	"github.com/angelmondragon/orderdesk/pkg/db"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists order documents. Status writes are compare-and-set on
// the current status and report whether a row matched.
type Repository interface {
	CreateBatch(ctx context.Context, orders []models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error)
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

// CreateBatch writes every order or none.
func (r *repository) CreateBatch(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		for i := range orders {
			if err := tx.Create(&orders[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Order("delivery_at ASC").
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("delivery_at ASC").
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(status)).
		Delete(&models.Order{})
	return res.RowsAffected > 0, res.Error
}
