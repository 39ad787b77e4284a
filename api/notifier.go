/*
notifier.go - Background delivery of queued notifications

PURPOSE:
  Periodically drains the notification outbox and hands each queued
  notification to a Sender (log, Telegram, ...). The dispatcher only
  ever enqueues atomically; this worker owns delivery and retry.

DESIGN:
  - Background goroutine with a configurable tick interval
  - Oldest-first, bounded batches per tick
  - A failed send leaves the row pending; it is retried next tick
  - Rows are marked sent only after the sender accepted them

USAGE:
  notifier := api.NewNotifier(store, sender, logger)
  notifier.Start()
  // ... later
  notifier.Stop()

SEE ALSO:
  - store/sqlite/sqlite.go: The outbox
  - notify/sender.go: Sender implementations
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/notify"
	"github.com/warp/vacation-engine/store/sqlite"
)

// Notifier drains the outbox through a Sender.
type Notifier struct {
	Store         *sqlite.Store
	Sender        notify.Sender
	DrainInterval time.Duration
	BatchSize     int
	Logger        *logrus.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewNotifier(store *sqlite.Store, sender notify.Sender, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Notifier{
		Store:         store,
		Sender:        sender,
		DrainInterval: 30 * time.Second,
		BatchSize:     100,
		Logger:        logger,
	}
}

// Start begins the drain loop. Starting a running notifier is a no-op;
// a stopped notifier can be started again.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticker != nil {
		return
	}
	n.ticker = time.NewTicker(n.DrainInterval)
	n.stop = make(chan struct{})
	n.wg.Add(1)
	go n.run(n.ticker, n.stop)

	n.Logger.WithField("interval", n.DrainInterval).Info("notification drain started")
}

// Stop stops the drain loop and waits for the current tick to finish.
// Stopping a stopped notifier is a no-op.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticker == nil {
		return
	}
	n.ticker.Stop()
	close(n.stop)
	n.wg.Wait()
	n.ticker = nil
	n.Logger.Info("notification drain stopped")
}

func (n *Notifier) run(ticker *time.Ticker, stop chan struct{}) {
	defer n.wg.Done()

	// Drain once on start so restarts don't sit on a backlog.
	n.DrainOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			n.DrainOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// DrainOnce delivers one batch of pending notifications. Failed sends
// stay pending and are retried on a later tick.
func (n *Notifier) DrainOnce(ctx context.Context) {
	pending, err := n.Store.PendingNotifications(ctx, n.BatchSize)
	if err != nil {
		n.Logger.WithError(err).Error("failed to load pending notifications")
		return
	}
	if len(pending) == 0 {
		return
	}

	var sent []string
	for _, qn := range pending {
		if err := n.Sender.Send(ctx, qn.Notification); err != nil {
			n.Logger.WithError(err).WithFields(logrus.Fields{
				"notification_id": qn.ID,
				"recipient":       qn.RecipientID,
			}).Warn("notification send failed, will retry")
			continue
		}
		sent = append(sent, qn.ID)
	}

	if err := n.Store.MarkSent(ctx, sent); err != nil {
		// Rows stay pending; the sender must tolerate the redelivery.
		n.Logger.WithError(err).Error("failed to mark notifications sent")
		return
	}

	n.Logger.WithFields(logrus.Fields{
		"delivered": len(sent),
		"pending":   len(pending) - len(sent),
	}).Info("notification drain tick")
}
