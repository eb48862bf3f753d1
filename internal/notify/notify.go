// Package notify publishes validation reports with violations to NATS so that
// editors are told before a bad link goes live.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/retry"
	"git.home.luguber.info/inful/pubtime/internal/timeline"
)

// ViolationEvent is the message body published on violations.
type ViolationEvent struct {
	Timestamp  time.Time           `json:"timestamp"`
	CorpusRoot string              `json:"corpus_root"`
	Violations int                 `json:"violations"`
	Report     timeline.JSONReport `json:"report"`
}

// Publisher sends a message on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close()
}

// Notifier publishes violation events.
type Notifier struct {
	pub     Publisher
	subject string
	policy  retry.Policy
}

// NewNotifier creates a notifier publishing on subject. Failed publishes are
// retried according to policy.
func NewNotifier(pub Publisher, subject string, policy retry.Policy) *Notifier {
	return &Notifier{pub: pub, subject: subject, policy: policy}
}

// NotifyViolations publishes r when it has violations. It reports whether a
// message was sent.
func (n *Notifier) NotifyViolations(ctx context.Context, root string, r *timeline.Report, at time.Time) (bool, error) {
	if n == nil || !r.HasViolations() {
		return false, nil
	}

	event := ViolationEvent{
		Timestamp:  at.UTC(),
		CorpusRoot: root,
		Violations: r.ViolationCount(),
		Report:     timeline.NewJSONReport(r),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("failed to marshal event: %w", err)
	}

	err = n.policy.Do(ctx, "notify", func(ctx context.Context) error {
		return n.pub.Publish(ctx, n.subject, data)
	})
	if err != nil {
		return false, pterrors.NotifyFailed(n.subject, err)
	}

	slog.Info("Published violation report",
		slog.String("subject", n.subject),
		logfields.Count(event.Violations))
	return true, nil
}

// Close releases the underlying publisher.
func (n *Notifier) Close() {
	if n != nil && n.pub != nil {
		n.pub.Close()
	}
}
