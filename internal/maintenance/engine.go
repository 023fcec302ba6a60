package maintenance

import (
	"time"

	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/zoobzio/clockz"
)

// Assessment is the derived state of a service at a point in time.
type Assessment struct {
	Urgency            Urgency
	Ratios             Ratios
	NextServiceDate    *time.Time
	NextServiceMileage int
	DaysRemaining      *int
	KmRemaining        *int
}

// Engine evaluates services against a policy using an injected clock.
type Engine struct {
	policy Policy
	clock  clockz.Clock
}

// NewEngine returns an Engine. A nil clock uses the real clock.
func NewEngine(policy Policy, clock clockz.Clock) *Engine {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Engine{policy: policy, clock: clock}
}

// Policy returns the engine's interval policy.
func (e *Engine) Policy() Policy { return e.policy }

// Today is the current date at UTC midnight.
func (e *Engine) Today() time.Time {
	return jalali.GregorianDate(e.clock.Now().UTC())
}

// Evaluate classifies svc given the vehicle's current odometer reading.
func (e *Engine) Evaluate(svc models.Service, currentMileage int) Assessment {
	today := e.Today()

	in := UrgencyInput{
		IntervalDays:       svc.IntervalDays,
		CurrentMileage:     currentMileage,
		LastServiceMileage: svc.LastServiceMileage,
		IntervalMileage:    svc.IntervalMileage,
	}
	if svc.LastServiceDate != nil {
		in.LastServiceDate = *svc.LastServiceDate
	}

	ratios := ComputeRatios(in, today)
	a := Assessment{
		Urgency:            Classify(ratios.Max()),
		Ratios:             ratios,
		NextServiceDate:    svc.NextServiceDate,
		NextServiceMileage: svc.NextServiceMileage,
	}

	if a.NextServiceDate == nil && svc.LastServiceDate != nil && svc.IntervalDays > 0 {
		next := NextServiceDate(*svc.LastServiceDate, svc.IntervalDays)
		a.NextServiceDate = &next
	}
	if a.NextServiceDate != nil {
		days := DaysBetween(today, *a.NextServiceDate)
		a.DaysRemaining = &days
	}
	if a.NextServiceMileage > 0 {
		km := a.NextServiceMileage - currentMileage
		a.KmRemaining = &km
	}
	return a
}

// IsDueWithin reports whether an open service falls due between today and
// today plus days, inclusive.
func (e *Engine) IsDueWithin(svc models.Service, days int) bool {
	if svc.Status == models.StatusCompleted || svc.Status == models.StatusCancelled {
		return false
	}
	if svc.NextServiceDate == nil {
		return false
	}
	today := e.Today()
	next := jalali.GregorianDate(*svc.NextServiceDate)
	return !next.Before(today) && !next.After(today.AddDate(0, 0, days))
}
