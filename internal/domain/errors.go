package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAlreadyInSession     = errors.New("already_in_session")
	ErrSelfTrade            = errors.New("self_trade")
	ErrNoSuchSession        = errors.New("no_such_session")
	ErrNotParticipant       = errors.New("not_participant")
	ErrNotInvitee           = errors.New("not_invitee")
	ErrNotReady             = errors.New("not_ready")
	ErrAlreadyConfirmed     = errors.New("already_confirmed")
	ErrOfferLocked          = errors.New("offer_locked")
	ErrTransferFailed       = errors.New("transfer_failed")
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientItems    = errors.New("insufficient_items")
	ErrCallbackNotFound     = errors.New("callback_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
