package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ParentID    pgtype.Text        `json:"parent_id"`
	Level       int32              `json:"level"`
	Category    string             `json:"category"`
	Subtype     string             `json:"subtype"`
	Balance     pgtype.Numeric     `json:"balance"`
	IsDetail    bool               `json:"is_detail"`
	IsActive    bool               `json:"is_active"`
	Version     int64              `json:"version"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type AuditLog struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RequestID    string             `json:"request_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type EntryNumberSequence struct {
	Year    int32 `json:"year"`
	LastSeq int64 `json:"last_seq"`
}

type JournalEntry struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Number      string             `json:"number"`
	EntryDate   pgtype.Timestamptz `json:"entry_date"`
	Description string             `json:"description"`
	Reference   string             `json:"reference"`
	State       string             `json:"state"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
	PostedAt    pgtype.Timestamptz `json:"posted_at"`
	VoidedAt    pgtype.Timestamptz `json:"voided_at"`
}

type Movement struct {
	ID          string         `json:"id"`
	EntryID     string         `json:"entry_id"`
	AccountID   string         `json:"account_id"`
	Debit       pgtype.Numeric `json:"debit"`
	Credit      pgtype.Numeric `json:"credit"`
	Description string         `json:"description"`
	Applied     bool           `json:"applied"`
	Position    int32          `json:"position"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}
