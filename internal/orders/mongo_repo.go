package orders

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgmongo "github.com/angelmondragon/orderdesk/pkg/mongo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "orders"

type refDoc struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

type lineItemDoc struct {
	ID       string `bson:"id"`
	Product  refDoc `bson:"product"`
	Quantity int    `bson:"quantity"`
	Weight   string `bson:"weight"`
	Price    string `bson:"price"`
	Notes    string `bson:"notes"`
	Status   string `bson:"status"`
}

// orderDoc nests the client and line item the way the document is read back
// by the desk.
type orderDoc struct {
	ID         string      `bson:"_id"`
	Client     refDoc      `bson:"client"`
	LineItem   lineItemDoc `bson:"line_item"`
	DeliveryAt time.Time   `bson:"delivery_at"`
	CreatedAt  time.Time   `bson:"created_at"`
}

func toDoc(o models.Order) orderDoc {
	return orderDoc{
		ID:     o.ID.String(),
		Client: refDoc{ID: o.ClientID.String(), Name: o.ClientName},
		LineItem: lineItemDoc{
			ID:       o.LineItemID.String(),
			Product:  refDoc{ID: o.ProductID.String(), Name: o.ProductName},
			Quantity: o.Quantity,
			Weight:   o.Weight.StringFixed(2),
			Price:    o.Price.StringFixed(2),
			Notes:    o.Notes,
			Status:   string(o.Status),
		},
		DeliveryAt: o.DeliveryAt.UTC(),
		CreatedAt:  o.CreatedAt.UTC(),
	}
}

func fromDoc(d orderDoc) (models.Order, error) {
	ids := make([]uuid.UUID, 4)
	for i, raw := range []string{d.ID, d.LineItem.ID, d.Client.ID, d.LineItem.Product.ID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return models.Order{}, err
		}
		ids[i] = id
	}
	weight := decimal.Zero
	if d.LineItem.Weight != "" {
		w, err := decimal.NewFromString(d.LineItem.Weight)
		if err != nil {
			return models.Order{}, err
		}
		weight = w
	}
	price, err := decimal.NewFromString(d.LineItem.Price)
	if err != nil {
		return models.Order{}, err
	}
	return models.Order{
		ID:          ids[0],
		LineItemID:  ids[1],
		ClientID:    ids[2],
		ClientName:  d.Client.Name,
		ProductID:   ids[3],
		ProductName: d.LineItem.Product.Name,
		Quantity:    d.LineItem.Quantity,
		Weight:      weight,
		Price:       price,
		Notes:       d.LineItem.Notes,
		Status:      enums.OrderStatus(d.LineItem.Status),
		DeliveryAt:  d.DeliveryAt,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository stores orders in the "orders" collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(collectionName)}
}

// EnsureMongoIndexes creates the client and delivery indexes used by listings.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client.id", Value: 1}, {Key: "delivery_at", Value: 1}}, Options: options.Index().SetName("idx_orders_client")},
		{Keys: bson.D{{Key: "delivery_at", Value: 1}}, Options: options.Index().SetName("idx_orders_delivery_at")},
	})
	return err
}

func (r *mongoRepository) CreateBatch(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(orders))
	for i := range orders {
		if orders[i].CreatedAt.IsZero() {
			orders[i].CreatedAt = now
		}
		docs = append(docs, toDoc(orders[i]))
	}
	return pkgmongo.WithTransaction(ctx, r.coll.Database(), func(sc mongo.SessionContext) error {
		_, err := r.coll.InsertMany(sc, docs)
		return err
	})
}

func (r *mongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var doc orderDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	order, err := fromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoRepository) List(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"client.id": clientID.String()})
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "delivery_at", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		o, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *mongoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "line_item.status": string(from)},
		bson.M{"$set": bson.M{"line_item.status": string(to)}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String(), "line_item.status": string(status)})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
