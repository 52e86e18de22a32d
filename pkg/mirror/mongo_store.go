package mirror

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoProductsCollection = "catalog_products"
	mongoPricesCollection   = "catalog_prices"
)

// MongoStore is a Store on two MongoDB collections keyed by internal id.
// Apply runs in a multi-document transaction, so the server must be a
// replica set or sharded cluster.
type MongoStore struct {
	db       *mongo.Database
	products *mongo.Collection
	prices   *mongo.Collection
}

// NewMongoStore ensures the product_id index on the prices collection.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{
		db:       db,
		products: db.Collection(mongoProductsCollection),
		prices:   db.Collection(mongoPricesCollection),
	}
	_, err := s.prices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create prices index: %w", err)
	}
	return s, nil
}

// Products returns every mirrored product sorted by _id.
func (s *MongoStore) Products(ctx context.Context) ([]ProductRow, error) {
	var out []ProductRow
	if err := findAll(ctx, s.products, &out); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	for i := range out {
		out[i].SyncedAt = out[i].SyncedAt.UTC()
	}
	return out, nil
}

// Prices returns every mirrored price sorted by _id.
func (s *MongoStore) Prices(ctx context.Context) ([]PriceRow, error) {
	var out []PriceRow
	if err := findAll(ctx, s.prices, &out); err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	for i := range out {
		out[i].SyncedAt = out[i].SyncedAt.UTC()
	}
	return out, nil
}

// ApplyProducts runs the change set in a session transaction, which needs
// a replica set.
func (s *MongoStore) ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error {
	writes := make([]mongo.WriteModel, 0, len(cs.Insert)+len(cs.Update)+1)
	for _, r := range cs.Insert {
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(r))
	}
	for _, r := range cs.Update {
		writes = append(writes, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": r.ID}).SetReplacement(r))
	}

	if len(cs.Delete) > 0 {
		writes = append(writes, mongo.NewDeleteManyModel().SetFilter(bson.M{"_id": bson.M{"$in": cs.Delete}}))
	}
	if len(writes) == 0 {
		return nil
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if len(cs.Delete) > 0 {
			if _, err := s.prices.DeleteMany(ctx, bson.M{"product_id": bson.M{"$in": cs.Delete}}); err != nil {
				return fmt.Errorf("delete product prices: %w", err)
			}
		}
		if _, err := s.products.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("write products: %w", err)
		}
		return nil
	})
}

// ApplyPrices runs the change set in a session transaction.
func (s *MongoStore) ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error {
	writes := make([]mongo.WriteModel, 0, len(cs.Insert)+len(cs.Update)+1)
	for _, r := range cs.Insert {
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(r))
	}
	for _, r := range cs.Update {
		writes = append(writes, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": r.ID}).SetReplacement(r))
	}
	if len(cs.Delete) > 0 {
		writes = append(writes, mongo.NewDeleteManyModel().SetFilter(bson.M{"_id": bson.M{"$in": cs.Delete}}))
	}
	if len(writes) == 0 {
		return nil
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.prices.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("write prices: %w", err)
		}
		return nil
	})
}

// ClearProducts empties both collections.
func (s *MongoStore) ClearProducts(ctx context.Context) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.prices.DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("clear prices: %w", err)
		}
		if _, err := s.products.DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		return nil
	})
}

// ClearPrices empties the prices collection.
func (s *MongoStore) ClearPrices(ctx context.Context) error {
	if _, err := s.prices.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear prices: %w", err)
	}
	return nil
}

func (s *MongoStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, out *[]T) error {
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
