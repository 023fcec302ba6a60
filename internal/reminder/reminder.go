// Package reminder periodically finds services that are coming due and
// publishes a reminder for each one that needs attention.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/notify"
	"github.com/zoobzio/clockz"
)

// ServiceFinder is the subset of db.ServiceCollection the scanner reads.
type ServiceFinder interface {
	FindServices(ctx context.Context, filter db.ServiceFilter) ([]models.Service, error)
}

// VehicleFinder is the subset of db.VehicleCollection the scanner reads.
type VehicleFinder interface {
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// Reminder is the payload published for one due service.
type Reminder struct {
	ServiceID   string `json:"service_id"`
	VehicleID   string `json:"vehicle_id"`
	UserID      string `json:"user_id"`
	ServiceName string `json:"service_name"`
	Vehicle     string `json:"vehicle"`
	DueDate     string `json:"due_date"`
	Urgency     string `json:"urgency"`
	Text        string `json:"text"`
}

// ReminderText renders the SMS body of a service reminder.
func ReminderText(serviceName, vehicleInfo, dueDate string) string {
	return fmt.Sprintf("سلام\nیادآوری سرویس %s برای خودروی %s\nتاریخ سررسید: %s\nماشین‌من", serviceName, vehicleInfo, dueDate)
}

// VehicleInfo describes a vehicle in reminder text.
func VehicleInfo(v *models.Vehicle) string {
	return fmt.Sprintf("%s %s (%s)", v.Brand, v.Model, v.LicensePlate)
}

// Scanner evaluates open services and publishes reminders.
type Scanner struct {
	services      ServiceFinder
	vehicles      VehicleFinder
	engine        *maintenance.Engine
	publisher     notify.Publisher
	metrics       *metrics.Metrics
	log           *logrus.Logger
	clock         clockz.Clock
	lookaheadDays int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMetrics records publish outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock replaces the clock that drives Run.
func WithClock(c clockz.Clock) Option {
	return func(s *Scanner) { s.clock = c }
}

// NewScanner returns a scanner that looks lookaheadDays ahead of today.
func NewScanner(services ServiceFinder, vehicles VehicleFinder, engine *maintenance.Engine,
	publisher notify.Publisher, log *logrus.Logger, lookaheadDays int, opts ...Option) *Scanner {
	s := &Scanner{
		services:      services,
		vehicles:      vehicles,
		engine:        engine,
		publisher:     publisher,
		log:           log,
		clock:         clockz.RealClock,
		lookaheadDays: lookaheadDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan publishes a reminder for every open service due by the end of the
// lookahead window whose urgency is important or urgent. Overdue services are
// included. It returns the number of reminders published.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	open := false
	until := s.engine.Today().AddDate(0, 0, s.lookaheadDays)

	services, err := s.services.FindServices(ctx, db.ServiceFilter{Completed: &open, DueTo: &until})
	if err != nil {
		return 0, fmt.Errorf("find due services: %w", err)
	}

	vehicles := make(map[string]*models.Vehicle)
	sent := 0
	for _, svc := range services {
		v, ok := vehicles[svc.VehicleID]
		if !ok {
			v, err = s.vehicles.FindVehicleByID(ctx, svc.VehicleID)
			if err != nil {
				s.log.WithError(err).WithField("vehicle_id", svc.VehicleID).Warn("Skipping reminder, vehicle lookup failed")
				continue
			}
			vehicles[svc.VehicleID] = v
		}

		a := s.engine.Evaluate(svc, v.CurrentMileage)
		if a.Urgency == maintenance.UrgencyNormal {
			continue
		}

		due := jalali.FormatOptional(a.NextServiceDate)
		info := VehicleInfo(v)
		r := Reminder{
			ServiceID:   svc.ID.Hex(),
			VehicleID:   svc.VehicleID,
			UserID:      svc.UserID,
			ServiceName: svc.Name,
			Vehicle:     info,
			DueDate:     due,
			Urgency:     string(a.Urgency),
			Text:        ReminderText(svc.Name, info, due),
		}

		err := s.publisher.Publish(ctx, notify.TopicServiceReminders, r)
		s.metrics.ObserveReminder(string(a.Urgency), err)
		if err != nil {
			s.log.WithError(err).WithField("service_id", r.ServiceID).Warn("Failed to publish reminder")
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{"candidates": len(services), "sent": sent}).Info("Reminder scan finished")
	return sent, nil
}

// Run scans once immediately and then every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	for {
		if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("Reminder scan failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
		}
	}
}
