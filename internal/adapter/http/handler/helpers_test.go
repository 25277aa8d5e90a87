package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/entries?from=2025-01-31&to=2025-02-01T10:00:00Z&bad=yesterday", nil)

	from, err := parseTimeQuery(req, "from")
	if err != nil || from == nil || from.Day() != 31 {
		t.Fatalf("expected plain date to parse, got %v, %v", from, err)
	}
	to, err := parseTimeQuery(req, "to")
	if err != nil || to == nil || to.Hour() != 10 {
		t.Fatalf("expected RFC 3339 timestamp to parse, got %v, %v", to, err)
	}
	missing, err := parseTimeQuery(req, "until")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing parameter, got %v, %v", missing, err)
	}
	if _, err := parseTimeQuery(req, "bad"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"entry not found", domain.ErrEntryNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrMovementNotFound), http.StatusNotFound},
		{"validation", domain.ErrDuplicateCode, http.StatusUnprocessableEntity},
		{"unbalanced", domain.NewUnbalancedError(decimal.NewFromInt(150), decimal.NewFromInt(140)), http.StatusUnprocessableEntity},
		{"too few movements", domain.ErrTooFewMovements, http.StatusUnprocessableEntity},
		{"negative balance", domain.ErrNegativeBalanceNotAllowed, http.StatusUnprocessableEntity},
		{"invalid state", domain.ErrEntryNotDraft, http.StatusConflict},
		{"referential integrity", domain.Errorf(domain.ErrReferentialIntegrity, "in use"), http.StatusConflict},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)

	writeDomainError(rr, req, errors.New("pq: password authentication failed"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != string(domain.CodeInternal) || strings.Contains(resp.Message, "password") {
		t.Fatalf("internal error leaked: %+v", resp)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"unknown field", `{"code":"1","name":"A","category":"ASSET","currency":"USD"}`, "unknown field"},
		{"fails validation", `{"name":"A","category":"ASSET"}`, "code is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(tt.body))
			var dst dto.CreateAccountRequest
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}
