/*
dispatch.go - Conflict-aware notification fan-out

PURPOSE:
  When a vacation range is created or changed, finds every open work
  item touching the vacationing user, works out the collaborator on the
  other side of each item, and emits exactly one notification per
  affected collaborator per side (author-side vs assignee-side).

GROUPING:
  Items are grouped by recipient before emission, so the number of
  outbound notifications is bounded by the number of distinct affected
  collaborators, not by the number of affected items. A recipient with
  five overlapping items gets one notification carrying five issue ids.
  Groups keep the insertion order of first appearance and never repeat
  an issue id.

ATOMICITY:
  The whole batch for one dispatch call goes through a single
  Transport.NotifyBatch invocation. Either every notification for the
  triggering event is durably accepted or none is - downstream mail
  delivery is not idempotent, so a recipient must never see a subset.
*/
package vacation

import (
	"context"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// NOTIFICATIONS
// =============================================================================

type NotificationKind string

const (
	// KindFromAuthor tells an assignee that the author of their items
	// is on vacation.
	KindFromAuthor NotificationKind = "from_author"

	// KindFromAssignedTo tells an author that the assignee of their
	// items is on vacation.
	KindFromAssignedTo NotificationKind = "from_assigned_to"
)

// Notification is one outbound message to one recipient.
type Notification struct {
	Kind        NotificationKind
	RecipientID UserID
	IssueIDs    []WorkItemID
	RangeID     RangeID
	UserID      UserID // the vacationing user
}

// Transport accepts notification batches. NotifyBatch is all-or-
// nothing: implementations must not durably accept a strict subset of
// the batch.
type Transport interface {
	NotifyBatch(ctx context.Context, batch []Notification) error
}

// =============================================================================
// DISPATCHER
// =============================================================================

type Dispatcher struct {
	Items     WorkItemSource
	Transport Transport
	Logger    *logrus.Logger
}

func NewDispatcher(items WorkItemSource, transport Transport, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{Items: items, Transport: transport, Logger: logger}
}

// Dispatch runs the fan-out for a just-saved range.
func (d *Dispatcher) Dispatch(ctx context.Context, rng *VacationRange) error {
	authored, err := d.Items.OpenItemsByAuthor(ctx, rng.UserID)
	if err != nil {
		return &DispatchError{RangeID: rng.ID, Err: err}
	}
	assigned, err := d.Items.OpenItemsByAssignee(ctx, rng.UserID)
	if err != nil {
		return &DispatchError{RangeID: rng.ID, Err: err}
	}

	byAssignee := newRecipientGroups()
	for _, item := range authored {
		if !item.Open || item.AssigneeID == 0 {
			continue
		}
		if !rng.Overlaps(item.StartDate, item.DueDate) {
			continue
		}
		byAssignee.add(item.AssigneeID, item.ID)
	}

	byAuthor := newRecipientGroups()
	for _, item := range assigned {
		if !item.Open || item.AuthorID == 0 {
			continue
		}
		if !rng.Overlaps(item.StartDate, item.DueDate) {
			continue
		}
		byAuthor.add(item.AuthorID, item.ID)
	}

	batch := make([]Notification, 0, byAssignee.len()+byAuthor.len())
	for _, g := range byAssignee.groups() {
		batch = append(batch, Notification{
			Kind:        KindFromAuthor,
			RecipientID: g.recipient,
			IssueIDs:    g.items,
			RangeID:     rng.ID,
			UserID:      rng.UserID,
		})
	}
	for _, g := range byAuthor.groups() {
		batch = append(batch, Notification{
			Kind:        KindFromAssignedTo,
			RecipientID: g.recipient,
			IssueIDs:    g.items,
			RangeID:     rng.ID,
			UserID:      rng.UserID,
		})
	}

	if len(batch) == 0 {
		return nil
	}

	if err := d.Transport.NotifyBatch(ctx, batch); err != nil {
		return &DispatchError{RangeID: rng.ID, Err: err}
	}

	d.Logger.WithFields(logrus.Fields{
		"range_id":      rng.ID,
		"user_id":       rng.UserID,
		"notifications": len(batch),
	}).Info("vacation notifications dispatched")
	return nil
}

// =============================================================================
// RECIPIENT GROUPS - Mapping builder with merge-on-collision
// =============================================================================

// recipientGroups maps recipient -> issue ids, appending under an
// existing key or creating a new singleton group. Preserves the
// insertion order of first appearance and deduplicates issue ids
// within a group.
type recipientGroups struct {
	order []UserID
	items map[UserID][]WorkItemID
	seen  map[UserID]map[WorkItemID]struct{}
}

func newRecipientGroups() *recipientGroups {
	return &recipientGroups{
		items: make(map[UserID][]WorkItemID),
		seen:  make(map[UserID]map[WorkItemID]struct{}),
	}
}

func (g *recipientGroups) add(recipient UserID, item WorkItemID) {
	if _, ok := g.items[recipient]; !ok {
		g.order = append(g.order, recipient)
		g.seen[recipient] = make(map[WorkItemID]struct{})
	}
	if _, dup := g.seen[recipient][item]; dup {
		return
	}
	g.seen[recipient][item] = struct{}{}
	g.items[recipient] = append(g.items[recipient], item)
}

func (g *recipientGroups) len() int { return len(g.order) }

type recipientGroup struct {
	recipient UserID
	items     []WorkItemID
}

func (g *recipientGroups) groups() []recipientGroup {
	out := make([]recipientGroup, 0, len(g.order))
	for _, r := range g.order {
		out = append(out, recipientGroup{recipient: r, items: g.items[r]})
	}
	return out
}
