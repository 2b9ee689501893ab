package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	tenantsCollection     = "tenants"
	membershipsCollection = "memberships"
	projectsCollection    = "projects"
)

// MongoStore implements Store, MembershipStore and ProjectStore on MongoDB.
type MongoStore struct {
	tenants     *mongo.Collection
	memberships *mongo.Collection
	projects    *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		tenants:     db.Collection(tenantsCollection),
		memberships: db.Collection(membershipsCollection),
		projects:    db.Collection(projectsCollection),
	}
}

// EnsureIndexes creates the indexes the queries rely on. Safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.tenants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_tenant_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("tenant: create tenant indexes: %w", err)
	}
	if _, err := s.memberships.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tenant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return fmt.Errorf("tenant: create membership indexes: %w", err)
	}
	if _, err := s.projects.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("tenant: create project indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Tenant, error) {
	var t Tenant
	err := s.tenants.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Tenant{}, notFound(ErrTenantNotFound)
	}
	if err != nil {
		return Tenant{}, fmt.Errorf("tenant: get %s: %w", id, err)
	}
	return t, nil
}

func (s *MongoStore) Create(ctx context.Context, t Tenant) error {
	if _, err := s.tenants.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("tenant: create %s: %w", t.ID, err)
	}
	return nil
}

func (s *MongoStore) CountSubTenants(ctx context.Context, ownerTenantID string, statuses ...Status) (int64, error) {
	filter := bson.M{"owner_tenant_id": ownerTenantID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	n, err := s.tenants.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("tenant: count sub-tenants of %s: %w", ownerTenantID, err)
	}
	return n, nil
}

func (s *MongoStore) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.tenants.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("tenant: update %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return notFound(ErrTenantNotFound)
	}
	return nil
}

func (s *MongoStore) UpdateAddons(ctx context.Context, id string, addons map[string]int64, monthlyPrice int64) error {
	return s.set(ctx, id, bson.M{
		"billing.addons":               addons,
		"billing.addons_monthly_price": monthlyPrice,
	})
}

func (s *MongoStore) MarkBillingPending(ctx context.Context, id string, monthlyPrice int64, paymentMethod string) error {
	return s.set(ctx, id, bson.M{
		"billing.status":         BillingPending,
		"billing.monthly_price":  monthlyPrice,
		"billing.payment_method": paymentMethod,
	})
}

func (s *MongoStore) SetUsage(ctx context.Context, id string, r Resource, value int64) error {
	return s.set(ctx, id, bson.M{"usage." + string(r): value})
}

// membershipDoc keeps the role as written by the identity provider; it is
// normalized with ParseRole on read.
type membershipDoc struct {
	TenantID  string    `bson:"tenant_id"`
	UserID    string    `bson:"user_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d membershipDoc) membership() Membership {
	return Membership{
		TenantID:  d.TenantID,
		UserID:    d.UserID,
		Role:      ParseRole(d.Role),
		CreatedAt: d.CreatedAt,
	}
}

func (s *MongoStore) Membership(ctx context.Context, userID, tenantID string) (Membership, error) {
	var d membershipDoc
	err := s.memberships.FindOne(ctx, bson.M{"user_id": userID, "tenant_id": tenantID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Membership{}, notFound(ErrMembershipNotFound)
	}
	if err != nil {
		return Membership{}, fmt.Errorf("tenant: get membership: %w", err)
	}
	return d.membership(), nil
}

func (s *MongoStore) MembershipsOf(ctx context.Context, userID string) ([]Membership, error) {
	cur, err := s.memberships.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("tenant: list memberships: %w", err)
	}
	var docs []membershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("tenant: decode memberships: %w", err)
	}
	out := make([]Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.membership())
	}
	return out, nil
}

func (s *MongoStore) CreateProject(ctx context.Context, p Project) error {
	if _, err := s.projects.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("tenant: create project: %w", err)
	}
	return nil
}
