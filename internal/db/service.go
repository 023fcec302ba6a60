package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoServiceCollection implements ServiceCollection for MongoDB.
type MongoServiceCollection struct {
	Collection *mongo.Collection
}

// InsertService inserts a service and sets its ID.
func (c *MongoServiceCollection) InsertService(ctx context.Context, svc *models.Service) error {
	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	oid, err := insertOne(ctx, c.Collection, svc)
	if err != nil {
		return err
	}
	svc.ID = oid
	return nil
}

// FindServices lists services matching filter, soonest due first.
func (c *MongoServiceCollection) FindServices(ctx context.Context, filter ServiceFilter) ([]models.Service, error) {
	opts := options.Find().SetSort(bson.D{{Key: "next_service_date", Value: 1}, {Key: "created_at", Value: -1}})
	return findMany[models.Service](ctx, c.Collection, filter.BSON(), opts)
}

// FindServiceByID finds a service by its ID.
func (c *MongoServiceCollection) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	return findByID[models.Service](ctx, c.Collection, id)
}

// UpdateService replaces a service by its ID.
func (c *MongoServiceCollection) UpdateService(ctx context.Context, id string, svc models.Service) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	svc.ID = oid
	svc.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, svc)
}

// DeleteService deletes a service by its ID.
func (c *MongoServiceCollection) DeleteService(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// DeleteServicesByVehicle removes every service of a vehicle.
func (c *MongoServiceCollection) DeleteServicesByVehicle(ctx context.Context, vehicleID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID})
	return err
}
