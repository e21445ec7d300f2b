package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/kickoff-dashboard/external/footballapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_Statuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: fmt.Errorf("%w: gameweek", usecase.ErrInvalidInput), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: team 42", usecase.ErrNotFound), want: http.StatusNotFound},
		{name: "upstream not found", err: fmt.Errorf("get team: %w", footballapi.ErrNotFound), want: http.StatusNotFound},
		{name: "upstream validation", err: fmt.Errorf("list fixtures: %w", footballapi.ErrValidation), want: http.StatusNotFound},
		{name: "unauthorized", err: usecase.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "dependency", err: fmt.Errorf("%w: football api", usecase.ErrDependencyUnavailable), want: http.StatusServiceUnavailable},
		{name: "invalid payload", err: fmt.Errorf("list teams: %w", footballapi.ErrInvalidPayload), want: http.StatusBadGateway},
		{name: "unknown", err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.want {
				t.Fatalf("mapError(%v)=%d want=%d", tt.err, got.HTTPStatus, tt.want)
			}
		})
	}
}
