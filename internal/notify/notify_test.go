package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// fakeClient records publishes. Methods it does not override panic.
type fakeClient struct {
	mqtt.Client
	token        mqtt.Token
	topic        string
	qos          byte
	payload      []byte
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.payload, _ = payload.([]byte)
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: completedToken(nil)}
	p := newMQTTPublisher(client, "mashinman/", time.Second, quietLogger())

	err := p.Publish(context.Background(), TopicServiceReminders, map[string]string{"text": "سلام"})
	require.NoError(t, err)

	assert.Equal(t, "mashinman/services/reminders", client.topic)
	assert.Equal(t, byte(1), client.qos)

	var got map[string]string
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, "سلام", got["text"])

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	client := &fakeClient{token: completedToken(errors.New("not authorized"))}
	p := newMQTTPublisher(client, "", time.Second, quietLogger())

	err := p.Publish(context.Background(), TopicEmergencyRequests, struct{}{})
	assert.ErrorContains(t, err, "not authorized")
	assert.Equal(t, TopicEmergencyRequests, client.topic)
}

func TestMQTTPublisher_Timeout(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	p := newMQTTPublisher(client, "x", 10*time.Millisecond, quietLogger())

	err := p.Publish(context.Background(), "t", 1)
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestMQTTPublisher_ContextCancelled(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	p := newMQTTPublisher(client, "x", time.Minute, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", 1), context.Canceled)
}

func TestMQTTPublisher_MarshalError(t *testing.T) {
	p := newMQTTPublisher(&fakeClient{}, "x", time.Second, quietLogger())
	assert.Error(t, p.Publish(context.Background(), "t", make(chan int)))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "any", nil))
	p.Close()
}
