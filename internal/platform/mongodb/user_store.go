package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	DisplayName string             `bson:"displayName"`
	PhotoURL    string             `bson:"photoURL"`
	AuthMethod  string             `bson:"authMethod"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastLogin   time.Time          `bson:"lastLogin"`
	UpdatedAt   *time.Time         `bson:"updatedAt,omitempty"`
}

func (d userDocument) toDomain() *domain.User {
	u := &domain.User{
		Email:       d.Email,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		AuthMethod:  domain.AuthMethod(d.AuthMethod),
		CreatedAt:   d.CreatedAt.UTC(),
		LastLogin:   d.LastLogin.UTC(),
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		u.UpdatedAt = &t
	}
	return u
}

// UserStore implements store.UserStore on the Users collection.
type UserStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore over db.
func NewUserStore(db *mongo.Database, logger *slog.Logger) *UserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		coll:   db.Collection(UsersCollection),
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Upsert implements store.UserStore.Upsert. Creation and the auth-method
// switch are each a single conditional write; an existing user with the
// same auth method is left untouched.
func (s *UserStore) Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insert := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "email", Value: user.Email},
		{Key: "displayName", Value: user.DisplayName},
		{Key: "photoURL", Value: user.PhotoURL},
		{Key: "authMethod", Value: string(user.AuthMethod)},
		{Key: "createdAt", Value: user.CreatedAt},
		{Key: "lastLogin", Value: user.LastLogin},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "email", Value: user.Email}}, insert,
		options.Update().SetUpsert(true))
	if err != nil {
		log.Error("failed to upsert user", "error", err)
		return nil, false, MapError(err, "user", "upsert")
	}

	created := res.UpsertedCount == 1
	if !created {
		switchFilter := bson.D{
			{Key: "email", Value: user.Email},
			{Key: "authMethod", Value: bson.D{{Key: "$ne", Value: string(user.AuthMethod)}}},
		}
		switchUpdate := bson.D{{Key: "$set", Value: bson.D{
			{Key: "authMethod", Value: string(user.AuthMethod)},
			{Key: "updatedAt", Value: user.LastLogin},
			{Key: "lastLogin", Value: user.LastLogin},
		}}}
		if _, err := s.coll.UpdateOne(ctx, switchFilter, switchUpdate); err != nil {
			log.Error("failed to update auth method", "error", err)
			return nil, false, MapError(err, "user", "upsert")
		}
	}

	current, err := s.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, err
	}

	log.Debug("user upserted", "created", created, "auth_method", string(current.AuthMethod))
	return current, created, nil
}

// RecordLogin implements store.UserStore.RecordLogin.
func (s *UserStore) RecordLogin(ctx context.Context, email string, at time.Time) (*domain.User, error) {
	var doc userDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "lastLogin", Value: at}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record login", "error", err)
		return nil, MapError(err, "user", "record_login")
	}
	return doc.toDomain(), nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user by email", "error", err)
		return nil, MapError(err, "user", "get")
	}
	return doc.toDomain(), nil
}
