package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vango-go/pj-assistant/pkg/core/live"
)

func TestFromError_ContextCanceled_Is408Cancelled(t *testing.T) {
	ae, status := FromError(context.Canceled, "req_test")
	if status != 408 {
		t.Fatalf("status=%d", status)
	}
	if ae.Type != ErrAPI || ae.Code != "cancelled" || ae.RequestID != "req_test" {
		t.Fatalf("err=%+v", ae)
	}
}

func TestFromError_SessionBusy_Is409(t *testing.T) {
	ae, status := FromError(fmt.Errorf("open: %w", live.ErrSessionBusy), "req_test")
	if status != http.StatusConflict {
		t.Fatalf("status=%d", status)
	}
	if ae.Code != "session_busy" {
		t.Fatalf("code=%q", ae.Code)
	}
}

func TestFromError_UnknownIsNotLeaked(t *testing.T) {
	ae, status := FromError(errors.New("pq: password authentication failed"), "")
	if status != http.StatusInternalServerError {
		t.Fatalf("status=%d", status)
	}
	if ae.Message != "internal error" {
		t.Fatalf("message=%q", ae.Message)
	}
}

func TestWrite_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, "req_1", &Error{Type: ErrNotFound, Message: "not found"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error == nil || env.Error.RequestID != "req_1" || env.Error.Type != ErrNotFound {
		t.Fatalf("envelope=%+v", env.Error)
	}
}
