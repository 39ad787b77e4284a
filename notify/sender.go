// Package notify delivers queued vacation notifications to their
// recipients. Senders run behind the durable outbox (see api.Notifier),
// so delivery retries never touch the core dispatch logic.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/vacation"
)

// Sender delivers a single notification. Implementations may be
// retried with the same notification; delivery should tolerate that.
type Sender interface {
	Send(ctx context.Context, n vacation.Notification) error
}

// =============================================================================
// LOG SENDER - Structured-log delivery (dev / audit fallback)
// =============================================================================

type LogSender struct {
	Logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogSender{Logger: logger}
}

func (s *LogSender) Send(_ context.Context, n vacation.Notification) error {
	s.Logger.WithFields(logrus.Fields{
		"kind":      n.Kind,
		"recipient": n.RecipientID,
		"issues":    n.IssueIDs,
		"range_id":  n.RangeID,
		"user_id":   n.UserID,
	}).Info("vacation notification")
	return nil
}

// Message renders the human-readable body shared by senders.
func Message(n vacation.Notification) string {
	role := "the author"
	if n.Kind == vacation.KindFromAssignedTo {
		role = "the assignee"
	}

	ids := make([]string, len(n.IssueIDs))
	for i, id := range n.IssueIDs {
		ids[i] = fmt.Sprintf("#%d", id)
	}

	return fmt.Sprintf("User %d, %s of your work items %s, is on vacation (range %d).",
		n.UserID, role, strings.Join(ids, ", "), n.RangeID)
}
