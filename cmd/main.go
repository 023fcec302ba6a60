package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/auth"
	"github.com/ukydev/mashinman/internal/config"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/handlers"
	"github.com/ukydev/mashinman/internal/logger"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/notify"
	"github.com/ukydev/mashinman/internal/reminder"
	"github.com/ukydev/mashinman/internal/validation"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}
	store := db.NewStore(database)

	publisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	clock := clockz.RealClock
	policy := maintenance.DefaultPolicy()
	engine := maintenance.NewEngine(policy, clock)
	m := metrics.New()

	router := handlers.NewRouter(handlers.Deps{
		Users:     store.Users,
		Vehicles:  store.Vehicles,
		Services:  store.Services,
		History:   store.History,
		Requests:  store.Emergency,
		Providers: store.Providers,

		Auth:      auth.NewService(cfg.JWTSecret, cfg.JWTExpiry, cfg.RefreshExpiry),
		Engine:    engine,
		Validator: validation.New(policy),
		Publisher: publisher,
		Metrics:   m,
		Log:       log,
		Clock:     clock,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},

		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	if cfg.ReminderInterval > 0 {
		scanner := reminder.NewScanner(store.Services, store.Vehicles, engine, publisher, log,
			cfg.ReminderLookaheadDays, reminder.WithMetrics(m), reminder.WithClock(clock))
		go scanner.Run(ctx, cfg.ReminderInterval)
		log.WithField("interval", cfg.ReminderInterval.String()).Info("Reminder scanner started")
	}

	return serve(ctx, newHTTPServer(cfg.Addr(), router), log)
}

// newPublisher connects to the MQTT broker, or returns a no-op publisher when
// none is configured.
func newPublisher(cfg *config.Config, log *logrus.Logger) (notify.Publisher, error) {
	if cfg.MQTTBroker == "" {
		log.Info("MQTT broker not configured, notifications disabled")
		return notify.NopPublisher{}, nil
	}
	p, err := notify.NewMQTTPublisher(notify.MQTTConfig{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientID,
		TopicPrefix: cfg.MQTTTopicPrefix,
		Timeout:     5 * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Connected to MQTT broker")
	return p, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, log *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server gracefully stopped")
	return nil
}
