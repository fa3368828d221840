package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"productapi/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const productsCollection = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description *string            `bson:"description,omitempty"`
	Price       float64            `bson:"price"`
	Stock       int                `bson:"stock"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d productDocument) toModel() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
type MongoProductRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo dials uri, verifies the connection and ensures the unique index on name.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoProductRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := NewMongoProductRepository(client, database)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(client *mongo.Client, database string) *MongoProductRepository {
	return &MongoProductRepository{
		client: client,
		coll:   client.Database(database).Collection(productsCollection),
	}
}

// EnsureIndexes creates the unique index backing name uniqueness.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create name index: %w", err)
	}
	return nil
}

// Find retrieves products matching q.
func (r *MongoProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	filter := bson.M{}
	if q.MinStock != nil {
		filter["stock"] = bson.M{"$gte": *q.MinStock}
	}

	opts := options.Find().SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	switch q.SortBy {
	case models.SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case models.SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	}

	return r.findMany(ctx, filter, opts)
}

// FindByID retrieves a single product by its ID.
func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMalformedID
	}

	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err, "failed to get product by ID "+id)
	}
	p := doc.toModel()
	return &p, nil
}

// SearchByName retrieves products whose name contains term, ignoring case.
func (r *MongoProductRepository) SearchByName(ctx context.Context, term string) ([]models.Product, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
	return r.findMany(ctx, filter, options.Find())
}

// Insert stores a new product, assigning its ID and creation time.
func (r *MongoProductRepository) Insert(ctx context.Context, product *models.Product) error {
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err, "failed to create product")
	}
	product.ID = doc.ID.Hex()
	product.CreatedAt = doc.CreatedAt
	return nil
}

// UpdateByID applies changes and returns the updated document.
func (r *MongoProductRepository) UpdateByID(ctx context.Context, id string, changes models.ProductChanges) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMalformedID
	}
	if changes.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	set := bson.M{}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Price != nil {
		set["price"] = *changes.Price
	}
	if changes.Stock != nil {
		set["stock"] = *changes.Stock
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if changes.ClearDescription {
		update["$unset"] = bson.M{"description": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translateMongoError(err, "failed to update product "+id)
	}
	p := doc.toModel()
	return &p, nil
}

// DeleteByID removes a product and returns the deleted document.
func (r *MongoProductRepository) DeleteByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMalformedID
	}

	var doc productDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err, "failed to delete product "+id)
	}
	p := doc.toModel()
	return &p, nil
}

// DeleteAll removes every product.
func (r *MongoProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return res.DeletedCount, nil
}

// Ping checks the primary is reachable.
func (r *MongoProductRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client pool.
func (r *MongoProductRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoProductRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

func translateMongoError(err error, msg string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNoMatch
	case mongo.IsDuplicateKeyError(err):
		return &DuplicateKeyError{Field: "name", Err: err}
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
