// Package maintenance classifies how overdue a vehicle service is and keeps
// the service lifecycle consistent with the baseline it schedules from.
package maintenance

import (
	"time"

	"github.com/ukydev/mashinman/internal/jalali"
)

// Urgency is the derived, never-stored classification of a service.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyImportant Urgency = "important"
	UrgencyUrgent    Urgency = "urgent"
)

// Lower bounds (inclusive) of the important and urgent bands.
const (
	ImportantThreshold = 0.8
	UrgentThreshold    = 1.0
)

// Rank orders urgencies from normal (0) to urgent (2).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyUrgent:
		return 2
	case UrgencyImportant:
		return 1
	default:
		return 0
	}
}

// UrgencyInput is the maintenance state of one service on one vehicle.
// A zero LastServiceDate disables the time signal.
type UrgencyInput struct {
	LastServiceDate    time.Time
	IntervalDays       int
	CurrentMileage     int
	LastServiceMileage int
	IntervalMileage    int
}

// Ratios holds the elapsed fraction of each interval.
type Ratios struct {
	Days    float64 `json:"days_ratio"`
	Mileage float64 `json:"mileage_ratio"`
}

// Max returns the larger of the two ratios.
func (r Ratios) Max() float64 {
	return max(r.Days, r.Mileage)
}

// ComputeRatios measures elapsed time and distance against their intervals.
// A non-positive interval yields a zero ratio for that signal.
func ComputeRatios(in UrgencyInput, today time.Time) Ratios {
	var r Ratios
	if in.IntervalDays > 0 && !in.LastServiceDate.IsZero() {
		r.Days = float64(DaysBetween(in.LastServiceDate, today)) / float64(in.IntervalDays)
	}
	if in.IntervalMileage > 0 {
		r.Mileage = float64(in.CurrentMileage-in.LastServiceMileage) / float64(in.IntervalMileage)
	}
	return r
}

// Classify maps the larger ratio onto an urgency band.
func Classify(maxRatio float64) Urgency {
	switch {
	case maxRatio >= UrgentThreshold:
		return UrgencyUrgent
	case maxRatio >= ImportantThreshold:
		return UrgencyImportant
	default:
		return UrgencyNormal
	}
}

// CalculateUrgency classifies a service by whichever signal is further along.
func CalculateUrgency(in UrgencyInput, today time.Time) Urgency {
	return Classify(ComputeRatios(in, today).Max())
}

// DaysBetween counts calendar days from one date to another, ignoring time of day.
func DaysBetween(from, to time.Time) int {
	f := jalali.GregorianDate(from).Unix()
	t := jalali.GregorianDate(to).Unix()
	return int((t - f) / (24 * 60 * 60))
}

// NextServiceDate is the last service date plus the day interval.
func NextServiceDate(last time.Time, intervalDays int) time.Time {
	return jalali.GregorianDate(last).AddDate(0, 0, intervalDays)
}
