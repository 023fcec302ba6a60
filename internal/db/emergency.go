package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEmergencyCollection implements EmergencyRequestCollection for MongoDB.
type MongoEmergencyCollection struct {
	Collection *mongo.Collection
}

// InsertRequest inserts an SOS request and sets its ID.
func (c *MongoEmergencyCollection) InsertRequest(ctx context.Context, req *models.EmergencyRequest) error {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	oid, err := insertOne(ctx, c.Collection, req)
	if err != nil {
		return err
	}
	req.ID = oid
	return nil
}

// FindRequests lists requests matching filter, newest first.
func (c *MongoEmergencyCollection) FindRequests(ctx context.Context, filter EmergencyFilter) ([]models.EmergencyRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.EmergencyRequest](ctx, c.Collection, filter.BSON(), opts)
}

// FindRequestByID finds a request by its ID.
func (c *MongoEmergencyCollection) FindRequestByID(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	return findByID[models.EmergencyRequest](ctx, c.Collection, id)
}

// UpdateRequest replaces a request by its ID.
func (c *MongoEmergencyCollection) UpdateRequest(ctx context.Context, id string, req models.EmergencyRequest) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	req.ID = oid
	req.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, id, req)
}

// MongoProviderCollection implements ProviderCollection for MongoDB.
type MongoProviderCollection struct {
	Collection *mongo.Collection
}

// InsertProvider inserts a provider and sets its ID.
func (c *MongoProviderCollection) InsertProvider(ctx context.Context, p *models.Provider) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	oid, err := insertOne(ctx, c.Collection, p)
	if err != nil {
		return err
	}
	p.ID = oid
	return nil
}

// FindProviders lists providers, optionally only active ones.
func (c *MongoProviderCollection) FindProviders(ctx context.Context, activeOnly bool) ([]models.Provider, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	return findMany[models.Provider](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// FindProviderByID finds a provider by its ID.
func (c *MongoProviderCollection) FindProviderByID(ctx context.Context, id string) (*models.Provider, error) {
	return findByID[models.Provider](ctx, c.Collection, id)
}
