package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/pkg/helpers"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

func newTestHandler() *responseHandler {
	return New(slog.New(logger.NewTestHandler(slog.LevelInfo)))
}

func TestWriteSuccess(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(helpers.TestCtx())
	rec := httptest.NewRecorder()

	h.WriteSuccess(rec, req, http.StatusCreated, map[string]string{"id": "w1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !body.Success || body.Data["id"] != "w1" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", errs.NewNotFoundError("widget not found"), http.StatusNotFound, errs.CodeNotFound, "widget not found"},
		{"validation", errs.NewValidationError("bad type"), http.StatusBadRequest, errs.CodeInvalidInput, "bad type"},
		{"wrapped validation", fmt.Errorf("import: %w", errs.NewValidationError("bad version")), http.StatusBadRequest, errs.CodeInvalidInput, "bad version"},
		{"database", errs.NewDatabaseError("write", "failed", errors.New("boom")), http.StatusInternalServerError, errs.CodeInternal, "An error occurred"},
		{"transient provider", errs.NewExternalServiceError("finnhub", "rate limited", true, nil), http.StatusServiceUnavailable, errs.CodeServiceUnavailable, "Service temporarily unavailable"},
		{"provider failure", errs.NewExternalServiceError("finnhub", "bad symbol", false, nil), http.StatusBadGateway, errs.CodeServiceUnavailable, "Service temporarily unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, errs.CodeInternal, "An unexpected error occurred"},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(helpers.TestCtx())
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body.Code != tt.wantCode || body.Message != tt.wantMsg {
				t.Errorf("body = %+v, want code %q message %q", body, tt.wantCode, tt.wantMsg)
			}
		})
	}
}
