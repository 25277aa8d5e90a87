package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who changed what in the ledger.
type AuditLog struct {
	ID           string
	OwnerID      string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountCreate     AuditAction = "account.create"
	AuditActionAccountDeactivate AuditAction = "account.deactivate"
	AuditActionAccountDelete     AuditAction = "account.delete"

	AuditActionEntryPost      AuditAction = "entry.post"
	AuditActionEntryVoid      AuditAction = "entry.void"
	AuditActionEntryDuplicate AuditAction = "entry.duplicate"
	AuditActionEntryDelete    AuditAction = "entry.delete"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// EntrySnapshot is the audited view of an entry.
func EntrySnapshot(e *JournalEntry) JSON {
	return JSON{
		"number":        e.Number,
		"state":         string(e.State),
		"description":   e.Description,
		"total_debits":  e.TotalDebits().String(),
		"total_credits": e.TotalCredits().String(),
		"movements":     len(e.Movements),
	}
}
