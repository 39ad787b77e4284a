// Package store provides in-memory implementations of the engine's
// collaborator interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY STORE - In-memory Store + WorkItemSource + ManagerDirectory
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	ranges    map[vacation.RangeID]vacation.VacationRange
	statuses  map[vacation.StatusID]vacation.VacationStatus
	summaries map[vacation.UserID]vacation.VacationSummary
	items     []vacation.WorkItem
	managers  map[vacation.UserID][]vacation.UserID // manager -> managed users

	nextRangeID  vacation.RangeID
	nextStatusID vacation.StatusID
}

func NewMemory() *Memory {
	return &Memory{
		ranges:    make(map[vacation.RangeID]vacation.VacationRange),
		statuses:  make(map[vacation.StatusID]vacation.VacationStatus),
		summaries: make(map[vacation.UserID]vacation.VacationSummary),
		managers:  make(map[vacation.UserID][]vacation.UserID),
	}
}

// SaveRange inserts when ID is zero, updates otherwise.
func (m *Memory) SaveRange(_ context.Context, r *vacation.VacationRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if r.ID == 0 {
		m.nextRangeID++
		r.ID = m.nextRangeID
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.ranges[r.ID] = *r
	return nil
}

func (m *Memory) FindRange(_ context.Context, id vacation.RangeID) (*vacation.VacationRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.ranges[id]
	if !ok {
		return nil, vacation.ErrRangeNotFound
	}
	return &r, nil
}

func (m *Memory) FindRanges(_ context.Context, q vacation.RangeQuery) ([]vacation.VacationRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []vacation.VacationRange
	for _, r := range m.ranges {
		if q.UserID != nil && r.UserID != *q.UserID {
			continue
		}
		if q.StatusID != nil && r.StatusID != *q.StatusID {
			continue
		}
		if q.Planned != nil {
			st, ok := m.statuses[r.StatusID]
			if !ok || st.IsPlanned != *q.Planned {
				continue
			}
		}
		if q.Bucket != nil {
			var field vacation.Date
			if q.Field() == vacation.FieldEndDate {
				if r.EndDate == nil {
					continue
				}
				field = *r.EndDate
			} else {
				field = r.StartDate
			}
			if !q.Bucket.Contains(field) {
				continue
			}
		}
		result = append(result, r)
	}

	desc := q.Order == vacation.OrderDesc
	sort.SliceStable(result, func(i, j int) bool {
		c := compareRanges(result[i], result[j])
		if desc {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// compareRanges orders by (start_date, end_date); a missing end date
// sorts before any concrete one, matching SQL NULL ordering.
func compareRanges(a, b vacation.VacationRange) int {
	switch {
	case a.StartDate.Before(b.StartDate):
		return -1
	case a.StartDate.After(b.StartDate):
		return 1
	}
	switch {
	case a.EndDate == nil && b.EndDate == nil:
		return 0
	case a.EndDate == nil:
		return -1
	case b.EndDate == nil:
		return 1
	case a.EndDate.Before(*b.EndDate):
		return -1
	case a.EndDate.After(*b.EndDate):
		return 1
	}
	return 0
}

func (m *Memory) HasRangeStarting(_ context.Context, user vacation.UserID, d vacation.Date) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.ranges {
		if r.UserID == user && r.StartDate.Equal(d) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) HasRangeEnding(_ context.Context, user vacation.UserID, d vacation.Date) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.ranges {
		if r.UserID == user && r.EndDate != nil && r.EndDate.Equal(d) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) FindStatus(_ context.Context, id vacation.StatusID) (*vacation.VacationStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.statuses[id]
	if !ok {
		return nil, vacation.ErrStatusNotFound
	}
	return &st, nil
}

func (m *Memory) ListStatuses(_ context.Context) ([]vacation.VacationStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]vacation.VacationStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveStatus(_ context.Context, s *vacation.VacationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == 0 {
		m.nextStatusID++
		s.ID = m.nextStatusID
	}
	m.statuses[s.ID] = *s
	return nil
}

func (m *Memory) Summary(_ context.Context, user vacation.UserID) (*vacation.VacationSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.summaries[user]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) UpsertSummary(_ context.Context, user vacation.UserID, fields vacation.SummaryFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summaries[user] = vacation.VacationSummary{
		UserID:        user,
		ActivePlanned: fields.ActivePlanned,
		LastPlanned:   fields.LastPlanned,
		NotPlanned:    fields.NotPlanned,
		UpdatedAt:     time.Now(),
	}
	return nil
}

func (m *Memory) UserIDsWithRanges(_ context.Context) ([]vacation.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[vacation.UserID]struct{})
	var users []vacation.UserID
	for _, r := range m.ranges {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		users = append(users, r.UserID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

// =============================================================================
// WORK ITEM SOURCE
// =============================================================================

// AddWorkItem seeds an external issue.
func (m *Memory) AddWorkItem(item vacation.WorkItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
}

func (m *Memory) OpenItemsByAuthor(_ context.Context, user vacation.UserID) ([]vacation.WorkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []vacation.WorkItem
	for _, item := range m.items {
		if item.Open && item.AuthorID == user {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *Memory) OpenItemsByAssignee(_ context.Context, user vacation.UserID) ([]vacation.WorkItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []vacation.WorkItem
	for _, item := range m.items {
		if item.Open && item.AssigneeID == user {
			result = append(result, item)
		}
	}
	return result, nil
}

// =============================================================================
// MANAGER DIRECTORY
// =============================================================================

// AssignManager records that manager oversees the managed user's leave.
func (m *Memory) AssignManager(manager, managed vacation.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.managers[manager] = append(m.managers[manager], managed)
}

func (m *Memory) IsManager(_ context.Context, user vacation.UserID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.managers[user]) > 0, nil
}

// NonManagers returns the users owning ranges who manage nobody.
func (m *Memory) NonManagers(_ context.Context) ([]vacation.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[vacation.UserID]struct{})
	var users []vacation.UserID
	for _, r := range m.ranges {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		if len(m.managers[r.UserID]) == 0 {
			users = append(users, r.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

// =============================================================================
// RECORDER TRANSPORT - Captures batches for assertions
// =============================================================================

// Recorder is a Transport that records every accepted batch. When
// FailWith is set, NotifyBatch rejects the batch without recording it,
// honoring the all-or-nothing contract.
type Recorder struct {
	mu       sync.Mutex
	Batches  [][]vacation.Notification
	FailWith error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) NotifyBatch(_ context.Context, batch []vacation.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	copied := make([]vacation.Notification, len(batch))
	copy(copied, batch)
	r.Batches = append(r.Batches, copied)
	return nil
}

// All returns every recorded notification in delivery order.
func (r *Recorder) All() []vacation.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []vacation.Notification
	for _, b := range r.Batches {
		all = append(all, b...)
	}
	return all
}
