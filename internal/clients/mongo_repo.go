package clients

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	pkgmongo "github.com/angelmondragon/orderdesk/pkg/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "clients"

type clientDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Contact   string    `bson:"contact"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDoc(c models.Client) clientDoc {
	return clientDoc{
		ID:        c.ID.String(),
		Name:      c.Name,
		Contact:   c.Contact,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func fromDoc(d clientDoc) (models.Client, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Client{}, err
	}
	return models.Client{ID: id, Name: d.Name, Contact: d.Contact, CreatedAt: d.CreatedAt}, nil
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository stores clients in the "clients" collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(collectionName)}
}

// EnsureMongoIndexes creates the unique name index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_clients_name"),
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, client *models.Client) error {
	stampCreated(client)
	if _, err := r.coll.InsertOne(ctx, toDoc(*client)); err != nil {
		return mapMongoWriteError(err)
	}
	return nil
}

func (r *mongoRepository) CreateBatch(ctx context.Context, clients []models.Client) error {
	if len(clients) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(clients))
	for i := range clients {
		stampCreated(&clients[i])
		docs = append(docs, toDoc(clients[i]))
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

func (r *mongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var doc clientDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	client, err := fromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *mongoRepository) List(ctx context.Context) ([]models.Client, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(docs))
	for _, d := range docs {
		c, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
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

func stampCreated(c *models.Client) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

func mapMongoWriteError(err error) error {
	if pkgmongo.IsDuplicateKey(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "client name already exists")
	}
	return err
}
