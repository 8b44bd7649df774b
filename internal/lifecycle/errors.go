package lifecycle

import "errors"

// Transition outcomes. Every precondition failure is one of these, possibly
// wrapped with detail; callers match them with errors.Is.
var (
	ErrItemNotFound            = errors.New("item not found")
	ErrInvalidRole             = errors.New("invalid role")
	ErrMissingCredential       = errors.New("missing credential")
	ErrCredentialNotFound      = errors.New("credential not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrCredentialMismatch      = errors.New("credential does not belong to caller")
	ErrAlreadyAccepted         = errors.New("item already accepted")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrStoreUnavailable        = errors.New("store unavailable")
)

var outcomes = []struct {
	err   error
	label string
}{
	{ErrItemNotFound, "item_not_found"},
	{ErrInvalidRole, "invalid_role"},
	{ErrMissingCredential, "missing_credential"},
	{ErrCredentialNotFound, "credential_not_found"},
	{ErrInvalidStatusTransition, "invalid_status_transition"},
	{ErrCredentialMismatch, "credential_mismatch"},
	{ErrAlreadyAccepted, "already_accepted"},
	{ErrInvalidStatus, "invalid_status"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Outcome returns a stable metric label for the result of an operation.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}
