package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection    = "users"
	profilesCollection = "profiles"
	auditCollection    = "audit_logs"
)

// EnsureMongoIndexes creates the unique and lookup indexes the repositories
// rely on. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "refreshToken", Value: 1}}},
			{Keys: bson.D{{Key: "authId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		profilesCollection: {
			{Keys: bson.D{{Key: "authId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		auditCollection: {
			{Keys: bson.D{{Key: "actorId", Value: 1}, {Key: "occurredAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindUserById(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindUserByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"refreshToken": token})
}

func (r *mongoUserRepository) FindUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	if authID == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"authId": authID})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	user.UpdatedAt = time.Now()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("save user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoProfileRepository struct {
	coll *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) ProfileRepository {
	return &mongoProfileRepository{coll: db.Collection(profilesCollection)}
}

func (r *mongoProfileRepository) FindProfileByAuthID(ctx context.Context, authID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.coll.FindOne(ctx, bson.M{"authId": authID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *mongoProfileRepository) UpsertProfile(ctx context.Context, authID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	if authID == "" {
		return nil, errors.New("empty auth id")
	}

	now := time.Now()
	set := bson.M{"updatedAt": now}
	if update.FullName != nil {
		set["fullname"] = *update.FullName
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var p domain.Profile
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"authId": authID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}},
		opts,
	).Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &p, nil
}

func (r *mongoProfileRepository) RekeyProfile(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return errors.New("empty auth id")
	}
	if from == to {
		return nil
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"authId": from},
		bson.M{"$set": bson.M{"authId": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("rekey profile: %w", err)
	}
	return nil
}

type mongoAuditRepository struct {
	coll *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database) AuditRepository {
	return &mongoAuditRepository{coll: db.Collection(auditCollection)}
}

func (r *mongoAuditRepository) CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *mongoAuditRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurredAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"actorId": actorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	logs := []domain.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode audit logs: %w", err)
	}
	return logs, nil
}
