package maintenance

import (
	"fmt"
	"time"

	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/models"
)

var transitions = map[models.ServiceStatus][]models.ServiceStatus{
	models.StatusPending:    {models.StatusInProgress, models.StatusCompleted, models.StatusCancelled, models.StatusDelayed},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled, models.StatusDelayed, models.StatusPending},
	models.StatusDelayed:    {models.StatusPending, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled},
	models.StatusCancelled:  {models.StatusPending},
	models.StatusCompleted:  nil,
}

// CanTransition reports whether a service may move from one status to another.
func CanTransition(from, to models.ServiceStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition changes the status of svc. Completion goes through Complete,
// since it has to record a new baseline.
func Transition(svc *models.Service, to models.ServiceStatus) error {
	if svc.Status == models.StatusCompleted {
		return ErrServiceAlreadyCompleted
	}
	if to == models.StatusCompleted {
		return fmt.Errorf("%w: completion requires a date and mileage", ErrInvalidTransition)
	}
	if svc.Status == to {
		return nil
	}
	if !CanTransition(svc.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, svc.Status, to)
	}
	svc.Status = to
	return nil
}

// Complete marks svc as done on date at mileage, resets its baseline and
// schedules the next occurrence.
func Complete(svc *models.Service, date time.Time, mileage int, policy Policy) error {
	if svc.Status == models.StatusCompleted {
		return ErrServiceAlreadyCompleted
	}
	if !CanTransition(svc.Status, models.StatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, svc.Status, models.StatusCompleted)
	}
	if err := ValidateMileageUpdate(svc.LastServiceMileage, mileage); err != nil {
		return err
	}

	d := jalali.GregorianDate(date)
	svc.LastServiceDate = &d
	svc.LastServiceMileage = mileage
	svc.CompletedAt = &d
	svc.Status = models.StatusCompleted
	Schedule(svc, policy)
	return nil
}

// Schedule fills the next due date and mileage of svc from its baseline.
func Schedule(svc *models.Service, policy Policy) {
	if svc.LastServiceDate != nil && svc.IntervalDays > 0 {
		next := NextServiceDate(*svc.LastServiceDate, svc.IntervalDays)
		svc.NextServiceDate = &next
	}
	if svc.IntervalMileage > 0 {
		svc.NextServiceMileage = svc.LastServiceMileage + svc.IntervalMileage
	} else {
		svc.NextServiceMileage = policy.NextServiceMileage(svc.LastServiceMileage, svc.Type)
	}
}
