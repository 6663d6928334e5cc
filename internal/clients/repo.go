package clients

import (
	"context"
	"errors"

	"github.com/angelmondragon/orderdesk/pkg/db"
	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists clients. Implementations exist for gorm and MongoDB.
type Repository interface {
	Create(ctx context.Context, client *models.Client) error
	CreateBatch(ctx context.Context, clients []models.Client) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a clients repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) CreateBatch(ctx context.Context, clients []models.Client) error {
	if len(clients) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(&clients).Error; err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) List(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Client{})
	return res.RowsAffected > 0, res.Error
}

func mapWriteError(err error) error {
	if pkgerrors.IsUniqueViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "client name already exists")
	}
	return err
}
