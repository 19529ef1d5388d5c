package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

type AlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

// ErrorAlertMiddleware posts panics and background failures to an incoming
// webhook. The same error is alerted at most once per cooldown.
type ErrorAlertMiddleware struct {
	config        AlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration
	post          func(ctx context.Context, url string, msg *slack.WebhookMessage) error
	now           func() time.Time
}

func NewErrorAlertMiddleware(config AlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute,
		post:          slack.PostWebhookContext,
		now:           time.Now,
	}
}

// HTTPMiddleware recovers panics, answers 500 and alerts.
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.alertOnPanic(rec, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WrapBackgroundTask alerts when a periodic job fails or panics.
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) func() error {
	return func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				m.alertOnPanic(rec, "Background task: "+taskName)
				err = fmt.Errorf("background task %s panicked: %v", taskName, rec)
			}
		}()

		if err := task(); err != nil {
			m.AlertOnError(err, "Background task: "+taskName)
			return err
		}
		return nil
	}
}

// AlertOnError sends an alert unless the same message was alerted within the cooldown.
func (m *ErrorAlertMiddleware) AlertOnError(err error, context string) {
	errorMsg := fmt.Sprintf("%s: %v", context, err)
	if !m.shouldAlert(errorMsg) {
		return
	}
	go m.sendAlert(errorMsg, context)
}

func (m *ErrorAlertMiddleware) alertOnPanic(rec any, context string) {
	errorMsg := fmt.Sprintf("%s: PANIC - %v", context, rec)
	log.Printf("❌ %s", errorMsg)
	if !m.shouldAlert(errorMsg) {
		return
	}
	go m.sendAlert(errorMsg, context+" (PANIC)")
}

func (m *ErrorAlertMiddleware) shouldAlert(errorMsg string) bool {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	if lastAlert, exists := m.alertedErrors[hash]; exists && now.Sub(lastAlert) < m.alertCooldown {
		return false
	}
	m.alertedErrors[hash] = now
	return true
}

func (m *ErrorAlertMiddleware) sendAlert(errorMsg, context string) {
	if m.config.WebhookURL == "" {
		return
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if err := m.post(ctx, m.config.WebhookURL, m.alertMessage(errorMsg, context)); err != nil {
		log.Printf("❌ Failed to send error alert: %v", err)
	}
}

func (m *ErrorAlertMiddleware) alertMessage(errorMsg, context string) *slack.WebhookMessage {
	prefix := ""
	if m.config.Environment == "dev" {
		prefix = "[dev] "
	}
	title := fmt.Sprintf("🚨 %s[%s] Error Alert", prefix, m.config.AppName)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, "*Service:* "+m.config.AppName, false, false),
			slack.NewTextBlockObject(slack.MarkdownType, "*Environment:* "+m.config.Environment, false, false),
			slack.NewTextBlockObject(slack.MarkdownType, "*Context:* "+context, false, false),
		}, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Error:*\n```%s```", errorMsg), false, false),
			nil, nil,
		),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL), false, false),
			nil, nil,
		))
	}

	return &slack.WebhookMessage{
		Text:   title,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
