package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()

	vehicles := &MongoVehicleCollection{}
	assert.ErrorIs(t, vehicles.InsertVehicle(ctx, &models.Vehicle{}), errNilCollection)
	_, err := vehicles.FindVehicles(ctx, "u1")
	assert.ErrorIs(t, err, errNilCollection)

	services := &MongoServiceCollection{}
	assert.ErrorIs(t, services.DeleteServicesByVehicle(ctx, "v1"), errNilCollection)
}

func TestInvalidID(t *testing.T) {
	ctx := context.Background()
	users := &MongoUserCollection{}

	_, err := users.FindUserByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, users.UpdateUser(ctx, "nope", models.User{}), ErrInvalidID)
}

func TestServiceFilter_BSON(t *testing.T) {
	from := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)
	open := false
	done := true

	tests := []struct {
		name   string
		filter ServiceFilter
		want   bson.M
	}{
		{"empty", ServiceFilter{}, bson.M{}},
		{"owner and vehicle", ServiceFilter{UserID: "u", VehicleID: "v"}, bson.M{"user_id": "u", "vehicle_id": "v"}},
		{"completed", ServiceFilter{Completed: &done}, bson.M{"status": models.StatusCompleted}},
		{
			"open and due",
			ServiceFilter{UserID: "u", Completed: &open, DueFrom: &from, DueTo: &to},
			bson.M{
				"user_id":           "u",
				"status":            bson.M{"$nin": []models.ServiceStatus{models.StatusCompleted, models.StatusCancelled}},
				"next_service_date": bson.M{"$gte": from, "$lte": to},
			},
		},
		{"type", ServiceFilter{Type: "oil_change"}, bson.M{"type": "oil_change"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.BSON())
		})
	}
}

func TestHistoryAndEmergencyFilters(t *testing.T) {
	assert.Equal(t, bson.M{"vehicle_id": "v", "service_id": "s"}, HistoryFilter{VehicleID: "v", ServiceID: "s"}.BSON())
	assert.Equal(t, bson.M{"user_id": "u", "status": models.EmergencyPending},
		EmergencyFilter{UserID: "u", Status: models.EmergencyPending}.BSON())
	assert.Equal(t, bson.M{}, EmergencyFilter{}.BSON())
}

func TestObjectID(t *testing.T) {
	_, err := objectID("65f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	_, err = objectID("")
	assert.ErrorIs(t, err, ErrInvalidID)
}
