// Package export runs export requests through a prioritized queue with
// progress reporting, cancellation, timeouts and statistics.
package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// Sentinel errors for queue operations.
var (
	ErrNotFound       = errors.New("export not found")
	ErrNotCancellable = errors.New("export already finished")
	ErrClosed         = errors.New("export queue closed")
)

// EventType identifies a queue event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
	EventCancelled EventType = "cancelled"
)

// Terminal reports whether no event can follow this one.
func (t EventType) Terminal() bool {
	return t == EventComplete || t == EventError || t == EventCancelled
}

// Event is delivered to subscribers of a queue item.
type Event struct {
	Type     EventType
	ItemID   string
	Progress *models.ExportProgress
	Result   *models.ExportResult
	Error    *models.ExportError
}

// QueueItem is a snapshot of one queued export.
type QueueItem struct {
	ID          string
	Checklist   *models.ChecklistResult
	Options     models.ExportOptions
	CreatedAt   time.Time
	Priority    int
	Status      models.QueueStatus
	Progress    models.ExportProgress
	Result      *models.ExportResult
	Error       *models.ExportError
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// entry is the orchestrator's mutable record of a queue item.
type entry struct {
	seq  uint64
	done chan struct{}

	mu     sync.RWMutex
	item   QueueItem
	ctx    context.Context
	cancel context.CancelCauseFunc

	// emitMu serializes event delivery for this item.
	emitMu   sync.Mutex
	subs     map[int]func(Event)
	nextSub  int
	terminal *Event
}

func (e *entry) snapshot() QueueItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.item
}

// transition moves the item to status. Caller must hold e.mu.
func (e *entry) transition(to models.QueueStatus) bool {
	if !models.CanTransition(e.item.Status, to) {
		return false
	}
	e.item.Status = to
	return true
}
