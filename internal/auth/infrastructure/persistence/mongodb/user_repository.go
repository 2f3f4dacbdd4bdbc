package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wyfcoding/quickcart/internal/auth/domain"
)

type userPO struct {
	ID           string `bson:"_id"`
	Username     string `bson:"username"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
}

func toUserPO(u *domain.User) *userPO {
	return &userPO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

func (po *userPO) toDomain() *domain.User {
	return &domain.User{
		ID:           po.ID,
		Username:     po.Username,
		Email:        po.Email,
		PasswordHash: po.PasswordHash,
	}
}

// UserRepository 基于 MongoDB 的用户仓储实现
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var po userPO
	err := r.collection.FindOne(ctx, filter).Decode(&po)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return po.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if _, err := r.collection.InsertOne(ctx, toUserPO(user)); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Username, err)
	}
	return nil
}
