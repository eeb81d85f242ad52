package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"zent/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/incomes/1").
		Data(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("Location") != "/api/incomes/1" {
		t.Error("custom header not set")
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["id"] != "1" {
		t.Errorf("body = %q, err = %v", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Data("ignored").Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		reason core.Reason
		want   int
	}{
		{core.ReasonValidation, http.StatusUnprocessableEntity},
		{core.ReasonUnknownAccount, http.StatusUnprocessableEntity},
		{core.ReasonMalformedRow, http.StatusUnprocessableEntity},
		{core.ReasonNotFound, http.StatusNotFound},
		{core.ReasonRateUnavailable, http.StatusServiceUnavailable},
		{core.ReasonStorage, http.StatusInternalServerError},
		{core.ReasonInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := StatusFor(tt.reason); got != tt.want {
				t.Errorf("StatusFor(%s) = %d, want %d", tt.reason, got, tt.want)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		retryAfter  string
	}{
		{
			name:        "validation message is shown",
			err:         core.Fail(core.ReasonValidation, "amount must be positive", core.ErrInvalidAmount),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "validation",
			wantMessage: "amount must be positive",
		},
		{
			name:        "storage message is hidden",
			err:         core.Fail(core.ReasonStorage, "insert income failed", errors.New("disk I/O error")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "storage",
			wantMessage: "Internal Server Error",
		},
		{
			name:        "plain errors are internal",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal",
			wantMessage: "Internal Server Error",
		},
		{
			name:        "missing rate asks to retry",
			err:         core.Fail(core.ReasonRateUnavailable, "exchange rate unavailable", nil),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    "rate_unavailable",
			wantMessage: "exchange rate unavailable",
			retryAfter:  "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.OK || body.Code != tt.wantCode || body.Message != tt.wantMessage {
				t.Errorf("body = %+v", body)
			}
			if got := w.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.retryAfter)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFoundError("no such income").Write(w)
	if w.Code != http.StatusNotFound {
		t.Errorf("NotFoundError status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	BadRequestError("bad").Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("BadRequestError status = %d", w.Code)
	}
}
