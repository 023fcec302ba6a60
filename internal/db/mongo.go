package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrDuplicate     = errors.New("duplicate document")
	errNilCollection = errors.New("mongo collection is nil")
)

// Collection names.
const (
	CollUsers     = "users"
	CollVehicles  = "vehicles"
	CollServices  = "services"
	CollHistory   = "service_history"
	CollEmergency = "emergency_requests"
	CollProviders = "providers"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections the API works with.
type Store struct {
	Users     *MongoUserCollection
	Vehicles  *MongoVehicleCollection
	Services  *MongoServiceCollection
	History   *MongoHistoryCollection
	Emergency *MongoEmergencyCollection
	Providers *MongoProviderCollection
}

// NewStore binds every collection to database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Users:     &MongoUserCollection{Collection: database.Collection(CollUsers)},
		Vehicles:  &MongoVehicleCollection{Collection: database.Collection(CollVehicles)},
		Services:  &MongoServiceCollection{Collection: database.Collection(CollServices)},
		History:   &MongoHistoryCollection{Collection: database.Collection(CollHistory)},
		Emergency: &MongoEmergencyCollection{Collection: database.Collection(CollEmergency)},
		Providers: &MongoProviderCollection{Collection: database.Collection(CollProviders)},
	}
}

// EnsureIndexes creates the indexes the queries rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollVehicles: {
			{Keys: bson.D{{Key: "license_plate", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		CollServices: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "vehicle_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_service_date", Value: 1}}},
		},
		CollHistory: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "service_date", Value: -1}}},
		},
		CollEmergency: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		CollProviders: {
			{Keys: bson.D{{Key: "is_active", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter any) (*T, error) {
	if c == nil {
		return nil, errNilCollection
	}
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findByID[T any](ctx context.Context, c *mongo.Collection, id string) (*T, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[T](ctx, c, bson.M{"_id": oid})
}

func findMany[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	if c == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insertOne(ctx context.Context, c *mongo.Collection, doc any) (primitive.ObjectID, error) {
	if c == nil {
		return primitive.NilObjectID, errNilCollection
	}
	res, err := c.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return primitive.NilObjectID, err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid, nil
}

func replaceByID(ctx context.Context, c *mongo.Collection, id string, doc any) error {
	if c == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := c.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func updateByID(ctx context.Context, c *mongo.Collection, id string, set bson.M) error {
	if c == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, c *mongo.Collection, id string) error {
	if c == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ UserCollection             = (*MongoUserCollection)(nil)
	_ VehicleCollection          = (*MongoVehicleCollection)(nil)
	_ ServiceCollection          = (*MongoServiceCollection)(nil)
	_ HistoryCollection          = (*MongoHistoryCollection)(nil)
	_ EmergencyRequestCollection = (*MongoEmergencyCollection)(nil)
	_ ProviderCollection         = (*MongoProviderCollection)(nil)
)
