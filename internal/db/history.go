package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoHistoryCollection implements HistoryCollection for MongoDB.
type MongoHistoryCollection struct {
	Collection *mongo.Collection
}

// InsertHistory inserts a history record and sets its ID.
func (c *MongoHistoryCollection) InsertHistory(ctx context.Context, h *models.ServiceHistory) error {
	h.CreatedAt = time.Now()
	oid, err := insertOne(ctx, c.Collection, h)
	if err != nil {
		return err
	}
	h.ID = oid
	return nil
}

// FindHistory lists history records matching filter, most recent service first.
func (c *MongoHistoryCollection) FindHistory(ctx context.Context, filter HistoryFilter) ([]models.ServiceHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "service_date", Value: -1}})
	return findMany[models.ServiceHistory](ctx, c.Collection, filter.BSON(), opts)
}

// FindHistoryByID finds a history record by its ID.
func (c *MongoHistoryCollection) FindHistoryByID(ctx context.Context, id string) (*models.ServiceHistory, error) {
	return findByID[models.ServiceHistory](ctx, c.Collection, id)
}

// DeleteHistory deletes a history record by its ID.
func (c *MongoHistoryCollection) DeleteHistory(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
