package workflow

import (
	"land-registry-service/apperr"
	"land-registry-service/models"
)

// Action is one of the five operations that may change a record's status.
type Action string

const (
	ActionRegister        Action = "register"
	ActionVerify          Action = "verify"
	ActionReject          Action = "reject"
	ActionRequestTransfer Action = "request-transfer"
	ActionApproveTransfer Action = "approve-transfer"
	ActionRejectTransfer  Action = "reject-transfer"
)

// transitions maps (action, current status) to the next status. Every
// status change in the service goes through Next; handlers and services
// never compare status strings themselves.
var transitions = map[Action]map[string]string{
	ActionRegister: {
		// Registration creates the record; there is no prior status.
		"": models.StatusPending,
	},
	ActionVerify: {
		models.StatusPending: models.StatusVerified,
		// Verifying a verified record is a no-op, not an error.
		models.StatusVerified: models.StatusVerified,
	},
	ActionReject: {
		models.StatusPending:  models.StatusRejected,
		models.StatusVerified: models.StatusRejected,
		models.StatusRejected: models.StatusRejected,
	},
	ActionRequestTransfer: {
		models.StatusVerified: models.StatusPendingTransfer,
	},
	ActionApproveTransfer: {
		models.StatusPendingTransfer: models.StatusVerified,
	},
	ActionRejectTransfer: {
		models.StatusPendingTransfer: models.StatusVerified,
	},
}

// Next returns the status a record moves to when action is applied while it
// is in current. Disallowed combinations come back as invalid-state errors.
func Next(current string, action Action) (string, error) {
	table, ok := transitions[action]
	if !ok {
		return "", apperr.Newf(apperr.Validation, "unknown action %q", action)
	}
	next, ok := table[current]
	if !ok {
		return "", apperr.Newf(apperr.InvalidState,
			"action %q is not allowed while the record is %q", action, displayStatus(current))
	}
	return next, nil
}

// ActionForStatus maps an admin-supplied target status onto the transition
// that produces it. Requesting PendingTransfer directly is refused here;
// that status is only reachable through the transfer request flow.
func ActionForStatus(status string) (Action, error) {
	switch status {
	case models.StatusVerified:
		return ActionVerify, nil
	case models.StatusRejected:
		return ActionReject, nil
	case models.StatusPendingTransfer:
		return "", apperr.New(apperr.InvalidState,
			"direct transfers are not allowed, use the transfer request API")
	case models.StatusPending:
		return "", apperr.New(apperr.InvalidState, "records cannot be moved back to Pending")
	default:
		return "", apperr.Newf(apperr.Validation, "unknown status %q", status)
	}
}

func displayStatus(s string) string {
	if s == "" {
		return "unregistered"
	}
	return s
}
