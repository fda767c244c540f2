package workflow

import (
	"testing"

	"land-registry-service/apperr"
	"land-registry-service/models"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current string
		action  Action

		expectNext string
		expectKind apperr.Kind
	}{
		{
			name:       "register creates pending",
			current:    "",
			action:     ActionRegister,
			expectNext: models.StatusPending,
		},
		{
			name:       "register on existing record",
			current:    models.StatusPending,
			action:     ActionRegister,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "verify pending",
			current:    models.StatusPending,
			action:     ActionVerify,
			expectNext: models.StatusVerified,
		},
		{
			name:       "verify verified is a no-op",
			current:    models.StatusVerified,
			action:     ActionVerify,
			expectNext: models.StatusVerified,
		},
		{
			name:       "verify during transfer",
			current:    models.StatusPendingTransfer,
			action:     ActionVerify,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "verify rejected record",
			current:    models.StatusRejected,
			action:     ActionVerify,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "reject pending",
			current:    models.StatusPending,
			action:     ActionReject,
			expectNext: models.StatusRejected,
		},
		{
			name:       "reject verified",
			current:    models.StatusVerified,
			action:     ActionReject,
			expectNext: models.StatusRejected,
		},
		{
			name:       "reject during transfer",
			current:    models.StatusPendingTransfer,
			action:     ActionReject,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "request transfer on verified",
			current:    models.StatusVerified,
			action:     ActionRequestTransfer,
			expectNext: models.StatusPendingTransfer,
		},
		{
			name:       "request transfer on pending",
			current:    models.StatusPending,
			action:     ActionRequestTransfer,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "request transfer while one is pending",
			current:    models.StatusPendingTransfer,
			action:     ActionRequestTransfer,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "request transfer on rejected",
			current:    models.StatusRejected,
			action:     ActionRequestTransfer,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "approve pending transfer",
			current:    models.StatusPendingTransfer,
			action:     ActionApproveTransfer,
			expectNext: models.StatusVerified,
		},
		{
			name:       "approve without pending transfer",
			current:    models.StatusVerified,
			action:     ActionApproveTransfer,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "reject pending transfer",
			current:    models.StatusPendingTransfer,
			action:     ActionRejectTransfer,
			expectNext: models.StatusVerified,
		},
		{
			name:       "reject transfer without pending transfer",
			current:    models.StatusPending,
			action:     ActionRejectTransfer,
			expectKind: apperr.InvalidState,
		},
		{
			name:       "unknown action",
			current:    models.StatusPending,
			action:     Action("bogus"),
			expectKind: apperr.Validation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Next(tt.current, tt.action)
			if tt.expectKind != "" {
				if err == nil {
					t.Fatalf("expected %s error, got status %q", tt.expectKind, next)
				}
				if !apperr.Is(err, tt.expectKind) {
					t.Errorf("expected kind %s, got %v", tt.expectKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != tt.expectNext {
				t.Errorf("expected %q, got %q", tt.expectNext, next)
			}
		})
	}
}

func TestActionForStatus(t *testing.T) {
	tests := []struct {
		status       string
		expectAction Action
		expectKind   apperr.Kind
	}{
		{status: models.StatusVerified, expectAction: ActionVerify},
		{status: models.StatusRejected, expectAction: ActionReject},
		{status: models.StatusPendingTransfer, expectKind: apperr.InvalidState},
		{status: models.StatusPending, expectKind: apperr.InvalidState},
		{status: "Garbage", expectKind: apperr.Validation},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			action, err := ActionForStatus(tt.status)
			if tt.expectKind != "" {
				if err == nil || !apperr.Is(err, tt.expectKind) {
					t.Fatalf("expected kind %s, got action %q err %v", tt.expectKind, action, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if action != tt.expectAction {
				t.Errorf("expected %q, got %q", tt.expectAction, action)
			}
		})
	}
}
