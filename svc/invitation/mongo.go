package invitation

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("invitations")}
}

// EnsureIndexes creates a unique token hash index and a tenant lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("invitation: create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, inv Invitation) error {
	if _, err := s.coll.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("invitation: insert: %w", err)
	}
	return nil
}

func (s *MongoStore) ListByTenant(ctx context.Context, tenantID string) ([]Invitation, error) {
	cur, err := s.coll.Find(ctx, bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("invitation: list: %w", err)
	}
	out := make([]Invitation, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("invitation: decode: %w", err)
	}
	return out, nil
}
