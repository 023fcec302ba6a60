package maintenance

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrInvalidMileage          = errors.New("invalid mileage")
	ErrServiceAlreadyCompleted = errors.New("service already completed")
	ErrInvalidTransition       = errors.New("invalid status transition")
)

// MaxMileage is the sanity ceiling for any odometer reading, in km.
const MaxMileage = 1_000_000

// DefaultInterval is the mileage interval for service types without a standard one.
const DefaultInterval = 5000

// Policy is the table of service types and their standard mileage intervals.
// Copies share the underlying map and slice; read them through Intervals and Types.
type Policy struct {
	StandardIntervals map[string]int
	ServiceTypes      []string
	DefaultInterval   int
}

// DefaultPolicy returns the standard interval table.
func DefaultPolicy() Policy {
	return Policy{
		StandardIntervals: map[string]int{
			"oil_change":             5000,
			"air_filter_replacement": 10000,
			"oil_filter_replacement": 10000,
			"timing_belt":            60000,
			"brake_fluid":            20000,
			"coolant_change":         40000,
			"spark_plug":             30000,
			"transmission_service":   50000,
		},
		ServiceTypes: []string{
			"oil_change", "tire_rotation", "brake_inspection", "engine_tuning",
			"air_filter_replacement", "oil_filter_replacement", "coolant_change",
			"transmission_service", "battery_check", "suspension_inspection",
			"exhaust_system_check", "electrical_system_check", "ac_service",
			"timing_belt", "brake_fluid", "spark_plug",
		},
		DefaultInterval: DefaultInterval,
	}
}

// IntervalFor returns the standard mileage interval of a service type.
func (p Policy) IntervalFor(serviceType string) int {
	if n, ok := p.StandardIntervals[serviceType]; ok {
		return n
	}
	if p.DefaultInterval > 0 {
		return p.DefaultInterval
	}
	return DefaultInterval
}

// NextServiceMileage is the last service mileage plus the type's standard interval.
func (p Policy) NextServiceMileage(lastMileage int, serviceType string) int {
	return lastMileage + p.IntervalFor(serviceType)
}

// IsServiceType reports whether t is a known service type.
func (p Policy) IsServiceType(t string) bool {
	return slices.Contains(p.ServiceTypes, t)
}

// Types returns a copy of the known service types.
func (p Policy) Types() []string {
	return slices.Clone(p.ServiceTypes)
}

// Intervals returns a copy of the standard mileage intervals.
func (p Policy) Intervals() map[string]int {
	return maps.Clone(p.StandardIntervals)
}

// ValidateMileage rejects readings outside [0, MaxMileage].
func ValidateMileage(mileage int) error {
	if mileage < 0 || mileage > MaxMileage {
		return fmt.Errorf("%w: %d is outside 0..%d", ErrInvalidMileage, mileage, MaxMileage)
	}
	return nil
}

// ValidateMileageUpdate rejects a reading that is invalid or lower than the stored one.
func ValidateMileageUpdate(stored, next int) error {
	if err := ValidateMileage(next); err != nil {
		return err
	}
	if next < stored {
		return fmt.Errorf("%w: %d is lower than recorded %d", ErrInvalidMileage, next, stored)
	}
	return nil
}

// ValidateBaselineMileage rejects a last-service reading above the odometer.
func ValidateBaselineMileage(last, current int) error {
	if err := ValidateMileage(last); err != nil {
		return err
	}
	if last > current {
		return fmt.Errorf("%w: last service at %d is above current mileage %d", ErrInvalidMileage, last, current)
	}
	return nil
}
