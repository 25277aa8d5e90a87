package domain

import "time"

// Event types
const (
	EventTypeAccountCreated  = "account.created"
	EventTypeEntryPosted     = "entry.posted"
	EventTypeEntryVoided     = "entry.voided"
	EventTypeEntryDuplicated = "entry.duplicated"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
	AggregateTypeEntry   = "journal_entry"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewAccountCreatedEvent builds the outbox event for a new account.
func NewAccountCreatedEvent(id string, a *Account, now time.Time) *OutboxEvent {
	payload := map[string]any{
		"account_id": a.ID,
		"code":       a.Code,
		"name":       a.Name,
		"category":   string(a.Category),
		"owner_id":   a.OwnerID,
	}
	if a.ParentID != nil {
		payload["parent_id"] = *a.ParentID
	}
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountCreated,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// NewEntryEvent builds an outbox event describing an entry transition.
func NewEntryEvent(id, eventType string, e *JournalEntry, now time.Time) *OutboxEvent {
	lines := make([]map[string]any, 0, len(e.Movements))
	for _, m := range e.Movements {
		lines = append(lines, map[string]any{
			"account_id": m.AccountID,
			"kind":       string(m.Kind()),
			"amount":     m.Amount().String(),
		})
	}
	return &OutboxEvent{
		ID:            id,
		AggregateID:   e.ID,
		AggregateType: AggregateTypeEntry,
		EventType:     eventType,
		Payload: map[string]any{
			"entry_id":  e.ID,
			"number":    e.Number,
			"state":     string(e.State),
			"owner_id":  e.OwnerID,
			"total":     e.TotalDebits().String(),
			"movements": lines,
			"event_at":  now.UTC().Format(time.RFC3339),
		},
		CreatedAt: now,
	}
}
