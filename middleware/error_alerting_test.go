package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlerter(t *testing.T) (*ErrorAlertMiddleware, chan *slack.WebhookMessage) {
	t.Helper()
	sent := make(chan *slack.WebhookMessage, 10)
	m := NewErrorAlertMiddleware(AlertConfig{
		WebhookURL:  "https://hooks.example.com/alerts",
		Environment: "dev",
		AppName:     "mmjira",
	})
	m.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		sent <- msg
		return nil
	}
	return m, sent
}

func receive(t *testing.T, sent chan *slack.WebhookMessage) *slack.WebhookMessage {
	t.Helper()
	select {
	case msg := <-sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected an alert to be sent")
		return nil
	}
}

func TestHTTPMiddleware_RecoversPanics(t *testing.T) {
	m, sent := newTestAlerter(t)
	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/mattermost/jira", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	msg := receive(t, sent)
	assert.Equal(t, "🚨 [dev] [mmjira] Error Alert", msg.Text)
	require.NotNil(t, msg.Blocks)
	assert.Len(t, msg.Blocks.BlockSet, 3)
}

func TestAlertOnError_Deduplicates(t *testing.T) {
	m, sent := newTestAlerter(t)
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	err := errors.New("connection refused")
	m.AlertOnError(err, "Background task: log retention")
	receive(t, sent)

	m.AlertOnError(err, "Background task: log retention")
	select {
	case <-sent:
		t.Fatal("duplicate alert inside the cooldown")
	case <-time.After(100 * time.Millisecond):
	}

	current = current.Add(11 * time.Minute)
	m.AlertOnError(err, "Background task: log retention")
	receive(t, sent)
}

func TestWrapBackgroundTask(t *testing.T) {
	m, sent := newTestAlerter(t)

	err := m.WrapBackgroundTask("cleanup", func() error { return errors.New("db down") })()
	assert.EqualError(t, err, "db down")
	msg := receive(t, sent)
	assert.Contains(t, msg.Text, "Error Alert")

	err = m.WrapBackgroundTask("cleanup", func() error { panic("nil pointer") })()
	assert.ErrorContains(t, err, "nil pointer")
	receive(t, sent)

	assert.NoError(t, m.WrapBackgroundTask("cleanup", func() error { return nil })())
}
