package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record and sets its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	oid, err := insertOne(ctx, c.Collection, vehicle)
	if err != nil {
		return err
	}
	vehicle.ID = oid
	return nil
}

// FindVehicles lists the vehicles of a user, newest first. An empty userID lists all.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.Vehicle](ctx, c.Collection, filter, opts)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return findByID[models.Vehicle](ctx, c.Collection, id)
}

// FindVehicleByPlate finds a vehicle by its normalized license plate.
func (c *MongoVehicleCollection) FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	return findOne[models.Vehicle](ctx, c.Collection, bson.M{"license_plate": plate})
}

// UpdateVehicle replaces a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	vehicle.ID = oid
	vehicle.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, vehicle)
}

// UpdateMileage sets the odometer reading of a vehicle.
func (c *MongoVehicleCollection) UpdateMileage(ctx context.Context, id string, mileage int) error {
	return updateByID(ctx, c.Collection, id, bson.M{"current_mileage": mileage, "updated_at": time.Now()})
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
