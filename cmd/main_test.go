package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/config"
	"github.com/ukydev/mashinman/internal/notify"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewPublisher_NoBroker(t *testing.T) {
	p, err := newPublisher(&config.Config{}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, notify.NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), notify.TopicServiceReminders, "x"))
}

func TestNewHTTPServer(t *testing.T) {
	h := http.NewServeMux()
	srv := newHTTPServer(":9000", h)

	assert.Equal(t, ":9000", srv.Addr)
	assert.Equal(t, h, srv.Handler)
	assert.NotZero(t, srv.ReadHeaderTimeout)
	assert.NotZero(t, srv.WriteTimeout)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newHTTPServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, quietLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	srv := newHTTPServer("127.0.0.1:-1", http.NotFoundHandler())
	err := serve(context.Background(), srv, quietLogger())
	assert.Error(t, err)
}
