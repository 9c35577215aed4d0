package utils

import (
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", NewAppError(KindSlotUnavailable, "taken"))

	tests := []struct {
		name   string
		err    error
		kind   ErrorKind
		status int
	}{
		{"validation", NewValidationError("bad", []string{"a", "b"}), KindValidation, http.StatusBadRequest},
		{"wrapped", wrapped, KindSlotUnavailable, http.StatusConflict},
		{"expired", NewAppError(KindExpired, "late"), KindExpired, http.StatusGone},
		{"transport", NewTransportError("smtp", fmt.Errorf("refused")), KindTransport, http.StatusBadGateway},
		{"plain", fmt.Errorf("boom"), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			if got := StatusFor(tt.err); got != tt.status {
				t.Errorf("StatusFor = %d, want %d", got, tt.status)
			}
		})
	}

	if MessageOf(wrapped) != "taken" {
		t.Errorf("MessageOf = %q", MessageOf(wrapped))
	}
}
