package products

import (
	"context"
	"errors"

	"github.com/angelmondragon/orderdesk/pkg/db"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists products. Implementations exist for gorm and MongoDB.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	CreateBatch(ctx context.Context, products []models.Product) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) CreateBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(&products).Error; err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

func mapWriteError(err error) error {
	if pkgerrors.IsUniqueViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already exists")
	}
	return err
}
