package events

import (
	"context"
	"strconv"
	"sync"

	"questhelper/domain/entities"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeDiaryCreated         EventType = "diary_created"
	EventTypeDiaryStatusChanged   EventType = "diary_status_changed"
	EventTypeDiaryRenamed         EventType = "diary_renamed"
	EventTypeDiaryDeleted         EventType = "diary_deleted"
	EventTypeRoleReferencesPruned EventType = "role_references_pruned"
	EventTypePrefixChanged        EventType = "prefix_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	// Fields returns the event payload as plain values. Snowflakes are
	// rendered as strings so they survive float conversion on the wire.
	Fields() map[string]any
}

// Publisher accepts events for delivery
type Publisher interface {
	Publish(event Event) error
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// DiaryCreatedEvent is emitted when a diary and its control message are created
type DiaryCreatedEvent struct {
	DiaryID          uuid.UUID
	GuildID          int64
	Name             string
	InitiatorID      int64
	ControlMessageID int64
}

func (e DiaryCreatedEvent) Type() EventType {
	return EventTypeDiaryCreated
}

func (e DiaryCreatedEvent) Fields() map[string]any {
	return map[string]any{
		"diary_id":           e.DiaryID.String(),
		"guild_id":           id(e.GuildID),
		"name":               e.Name,
		"initiator_id":       id(e.InitiatorID),
		"control_message_id": id(e.ControlMessageID),
	}
}

// DiaryStatusChangedEvent is emitted whenever a diary status is written,
// including writes that leave the status unchanged
type DiaryStatusChangedEvent struct {
	DiaryID   uuid.UUID
	GuildID   int64
	Name      string
	OldStatus entities.DiaryStatus
	NewStatus entities.DiaryStatus
	ChangedBy int64
}

func (e DiaryStatusChangedEvent) Type() EventType {
	return EventTypeDiaryStatusChanged
}

func (e DiaryStatusChangedEvent) Fields() map[string]any {
	return map[string]any{
		"diary_id":   e.DiaryID.String(),
		"guild_id":   id(e.GuildID),
		"name":       e.Name,
		"old_status": string(e.OldStatus),
		"new_status": string(e.NewStatus),
		"changed_by": id(e.ChangedBy),
	}
}

// DiaryRenamedEvent is emitted when a diary's name changes
type DiaryRenamedEvent struct {
	DiaryID uuid.UUID
	GuildID int64
	OldName string
	NewName string
}

func (e DiaryRenamedEvent) Type() EventType {
	return EventTypeDiaryRenamed
}

func (e DiaryRenamedEvent) Fields() map[string]any {
	return map[string]any{
		"diary_id": e.DiaryID.String(),
		"guild_id": id(e.GuildID),
		"old_name": e.OldName,
		"new_name": e.NewName,
	}
}

// DiaryDeletedEvent is emitted when a diary is removed
type DiaryDeletedEvent struct {
	DiaryID uuid.UUID
	GuildID int64
	Name    string
}

func (e DiaryDeletedEvent) Type() EventType {
	return EventTypeDiaryDeleted
}

func (e DiaryDeletedEvent) Fields() map[string]any {
	return map[string]any{
		"diary_id": e.DiaryID.String(),
		"guild_id": id(e.GuildID),
		"name":     e.Name,
	}
}

// RoleReferencesPrunedEvent is emitted after reconciliation removed stale references
type RoleReferencesPrunedEvent struct {
	GuildID int64
	Kind    entities.RoleKind
	RoleIDs []int64
}

func (e RoleReferencesPrunedEvent) Type() EventType {
	return EventTypeRoleReferencesPruned
}

func (e RoleReferencesPrunedEvent) Fields() map[string]any {
	roleIDs := make([]any, len(e.RoleIDs))
	for i, roleID := range e.RoleIDs {
		roleIDs[i] = id(roleID)
	}
	return map[string]any{
		"guild_id": id(e.GuildID),
		"kind":     string(e.Kind),
		"role_ids": roleIDs,
	}
}

// PrefixChangedEvent is emitted when a guild's command prefix is written
type PrefixChangedEvent struct {
	GuildID   int64
	OldPrefix string
	NewPrefix string
	ChangedBy int64
}

func (e PrefixChangedEvent) Type() EventType {
	return EventTypePrefixChanged
}

func (e PrefixChangedEvent) Fields() map[string]any {
	return map[string]any{
		"guild_id":   id(e.GuildID),
		"old_prefix": e.OldPrefix,
		"new_prefix": e.NewPrefix,
		"changed_by": id(e.ChangedBy),
	}
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages in-process event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit dispatches an event to all registered handlers, each on its own goroutine
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish implements Publisher by emitting on a background context
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits, then forwards them to the real publisher
type TransactionalBus struct {
	real    Publisher
	pending []Event
}

// NewTransactionalBus creates a transactional bus in front of real
func NewTransactionalBus(real Publisher) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
	return nil
}

// Flush forwards pending events after a successful commit. Delivery failures
// are logged and do not stop the remaining events.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	for _, ev := range b.pending {
		if err := b.real.Publish(ev); err != nil {
			log.WithFields(log.Fields{
				"eventType": ev.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedEventCount", len(b.pending)).Debug("Discarding pending events")
	}
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
