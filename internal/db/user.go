package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new active user and sets its ID.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true

	oid, err := insertOne(ctx, c.Collection, user)
	if err != nil {
		return err
	}
	user.ID = oid
	return nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, c.Collection, id)
}

// FindUserByPhone finds a user by their normalized phone number
func (c *MongoUserCollection) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return findOne[models.User](ctx, c.Collection, bson.M{"phone": phone})
}

// UpdateUser replaces a user document
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	user.ID = oid
	user.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, user)
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	return updateByID(ctx, c.Collection, id, bson.M{"last_login": now, "updated_at": now})
}
