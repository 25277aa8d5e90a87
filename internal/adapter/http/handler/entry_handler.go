package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.JournalEntry, error)
	CheckEntry(ctx context.Context, id string) (*usecase.EntryCheck, error)
	AddMovement(ctx context.Context, entryID string, input usecase.MovementInput) (*domain.JournalEntry, error)
	UpdateMovement(ctx context.Context, entryID, movementID string, input usecase.MovementInput) (*domain.JournalEntry, error)
	RemoveMovement(ctx context.Context, entryID, movementID string) (*domain.JournalEntry, error)
	PostEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	VoidEntry(ctx context.Context, id, reason string) (*domain.JournalEntry, error)
	DuplicateEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// EntryHandler handles journal entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// Create drafts a new entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	entry, err := h.entryUC.CreateEntry(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry with its movements.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries filtered by ?state=, ?from= and ?to=.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), usecase.EntryFilter{
		State:  domain.EntryState(r.URL.Query().Get("state")),
		From:   from,
		To:     to,
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Check reports whether an entry can be posted or voided.
func (h *EntryHandler) Check(w http.ResponseWriter, r *http.Request) {
	check, err := h.entryUC.CheckEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryCheckFromUseCase(check))
}

// AddMovement appends a line to a draft entry.
func (h *EntryHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	var req dto.MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	entry, err := h.entryUC.AddMovement(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// UpdateMovement replaces a line of a draft entry.
func (h *EntryHandler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	var req dto.MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	entry, err := h.entryUC.UpdateMovement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "movementID"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// RemoveMovement drops a line from a draft entry.
func (h *EntryHandler) RemoveMovement(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.RemoveMovement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "movementID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Post applies a draft entry to its accounts.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.PostEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Void reverts a posted entry.
func (h *EntryHandler) Void(w http.ResponseWriter, r *http.Request) {
	var req dto.VoidEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	entry, err := h.entryUC.VoidEntry(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Duplicate copies an entry into a new draft.
func (h *EntryHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.DuplicateEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Delete removes a draft entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.entryUC.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
