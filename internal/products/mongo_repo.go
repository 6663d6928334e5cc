package products

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	pkgmongo "github.com/angelmondragon/orderdesk/pkg/mongo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "products"

// Prices are kept as decimal strings so no precision is lost in BSON doubles.
type productDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Price         string    `bson:"price"`
	PriceByWeight bool      `bson:"price_by_weight"`
	CreatedAt     time.Time `bson:"created_at"`
}

func toDoc(p models.Product) productDoc {
	return productDoc{
		ID:            p.ID.String(),
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		PriceByWeight: p.PriceByWeight,
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

func fromDoc(d productDoc) (models.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Product{}, err
	}
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return models.Product{}, err
	}
	return models.Product{
		ID:            id,
		Name:          d.Name,
		Price:         price,
		PriceByWeight: d.PriceByWeight,
		CreatedAt:     d.CreatedAt,
	}, nil
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository stores products in the "products" collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(collectionName)}
}

// EnsureMongoIndexes creates the unique name index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_products_name"),
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, product *models.Product) error {
	stampCreated(product)
	if _, err := r.coll.InsertOne(ctx, toDoc(*product)); err != nil {
		return mapMongoWriteError(err)
	}
	return nil
}

func (r *mongoRepository) CreateBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(products))
	for i := range products {
		stampCreated(&products[i])
		docs = append(docs, toDoc(products[i]))
	}
	return pkgmongo.WithTransaction(ctx, r.coll.Database(), func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertMany(sc, docs); err != nil {
			return mapMongoWriteError(err)
		}
		return nil
	})
}

func (r *mongoRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	return count > 0, err
}

func (r *mongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	product, err := fromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *mongoRepository) List(ctx context.Context) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func stampCreated(p *models.Product) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

func mapMongoWriteError(err error) error {
	if pkgmongo.IsDuplicateKey(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already exists")
	}
	return err
}
