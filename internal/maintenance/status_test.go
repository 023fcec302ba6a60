package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/models"
)

func pendingOilChange() *models.Service {
	last := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	return &models.Service{
		Type:               "oil_change",
		Name:               "تعویض روغن",
		IntervalDays:       180,
		IntervalMileage:    10000,
		LastServiceDate:    &last,
		LastServiceMileage: 50000,
		Status:             models.StatusPending,
	}
}

func TestComplete(t *testing.T) {
	svc := pendingOilChange()
	done := time.Date(2024, 10, 5, 14, 0, 0, 0, time.UTC)

	require.NoError(t, Complete(svc, done, 58000, DefaultPolicy()))

	assert.Equal(t, models.StatusCompleted, svc.Status)
	assert.Equal(t, 58000, svc.LastServiceMileage)
	assert.Equal(t, 68000, svc.NextServiceMileage)
	require.NotNil(t, svc.LastServiceDate)
	assert.Equal(t, time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC), *svc.LastServiceDate)
	require.NotNil(t, svc.NextServiceDate)
	assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), *svc.NextServiceDate)
	require.NotNil(t, svc.CompletedAt)
}

func TestComplete_ResetsUrgency(t *testing.T) {
	svc := pendingOilChange()
	now := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)

	before := CalculateUrgency(UrgencyInput{
		LastServiceDate: *svc.LastServiceDate, IntervalDays: svc.IntervalDays,
		CurrentMileage: 61000, LastServiceMileage: svc.LastServiceMileage, IntervalMileage: svc.IntervalMileage,
	}, now)
	assert.Equal(t, UrgencyUrgent, before)

	require.NoError(t, Complete(svc, now, 61000, DefaultPolicy()))
	after := CalculateUrgency(UrgencyInput{
		LastServiceDate: *svc.LastServiceDate, IntervalDays: svc.IntervalDays,
		CurrentMileage: 61000, LastServiceMileage: svc.LastServiceMileage, IntervalMileage: svc.IntervalMileage,
	}, now)
	assert.Equal(t, UrgencyNormal, after)
}

func TestComplete_Twice(t *testing.T) {
	svc := pendingOilChange()
	now := time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Complete(svc, now, 58000, DefaultPolicy()))

	err := Complete(svc, now, 59000, DefaultPolicy())
	assert.ErrorIs(t, err, ErrServiceAlreadyCompleted)
	assert.Equal(t, 58000, svc.LastServiceMileage)
}

func TestComplete_Cancelled(t *testing.T) {
	svc := pendingOilChange()
	svc.Status = models.StatusCancelled
	err := Complete(svc, time.Now(), 58000, DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestComplete_RejectsLowerMileage(t *testing.T) {
	svc := pendingOilChange()
	err := Complete(svc, time.Now(), 49000, DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidMileage)
	assert.Equal(t, models.StatusPending, svc.Status)
}

func TestComplete_FallsBackToStandardInterval(t *testing.T) {
	svc := pendingOilChange()
	svc.Type = "timing_belt"
	svc.IntervalMileage = 0
	svc.IntervalDays = 0
	svc.NextServiceDate = nil

	require.NoError(t, Complete(svc, time.Now(), 60000, DefaultPolicy()))
	assert.Equal(t, 120000, svc.NextServiceMileage)
	assert.Nil(t, svc.NextServiceDate)
}

func TestTransition(t *testing.T) {
	svc := pendingOilChange()

	require.NoError(t, Transition(svc, models.StatusInProgress))
	assert.Equal(t, models.StatusInProgress, svc.Status)

	require.NoError(t, Transition(svc, models.StatusDelayed))
	require.NoError(t, Transition(svc, models.StatusCancelled))
	require.NoError(t, Transition(svc, models.StatusPending))
	require.NoError(t, Transition(svc, models.StatusPending))

	assert.ErrorIs(t, Transition(svc, models.StatusCompleted), ErrInvalidTransition)

	svc.Status = models.StatusCompleted
	assert.ErrorIs(t, Transition(svc, models.StatusPending), ErrServiceAlreadyCompleted)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusCompleted))
	assert.True(t, CanTransition(models.StatusDelayed, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusPending))
	assert.False(t, CanTransition("bogus", models.StatusPending))
}

func TestValidateMileage(t *testing.T) {
	assert.NoError(t, ValidateMileage(0))
	assert.NoError(t, ValidateMileage(MaxMileage))
	assert.ErrorIs(t, ValidateMileage(-1), ErrInvalidMileage)
	assert.ErrorIs(t, ValidateMileage(MaxMileage+1), ErrInvalidMileage)

	assert.NoError(t, ValidateMileageUpdate(1000, 1000))
	assert.NoError(t, ValidateMileageUpdate(1000, 1500))
	assert.ErrorIs(t, ValidateMileageUpdate(1000, 999), ErrInvalidMileage)

	assert.NoError(t, ValidateBaselineMileage(0, 0))
	assert.NoError(t, ValidateBaselineMileage(1000, 1000))
	assert.ErrorIs(t, ValidateBaselineMileage(1001, 1000), ErrInvalidMileage)
	assert.ErrorIs(t, ValidateBaselineMileage(-1, 1000), ErrInvalidMileage)
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5000, p.IntervalFor("oil_change"))
	assert.Equal(t, 60000, p.IntervalFor("timing_belt"))
	assert.Equal(t, DefaultInterval, p.IntervalFor("battery_check"))
	assert.Equal(t, 45000, p.NextServiceMileage(40000, "unknown"))
	assert.True(t, p.IsServiceType("ac_service"))
	assert.False(t, p.IsServiceType("car_wash"))

	types := p.Types()
	types[0] = "mutated"
	assert.True(t, p.IsServiceType("oil_change"))

	intervals := p.Intervals()
	assert.Equal(t, 5000, intervals["oil_change"])
	intervals["oil_change"] = 1
	delete(intervals, "timing_belt")
	assert.Equal(t, 5000, p.IntervalFor("oil_change"))
	assert.Equal(t, 60000, p.IntervalFor("timing_belt"))

	custom := Policy{StandardIntervals: map[string]int{"oil_change": 7000}}
	assert.Equal(t, 7000, custom.IntervalFor("oil_change"))
	assert.Equal(t, DefaultInterval, custom.IntervalFor("x"))
}
