package mailbox

import "errors"

// Errors returned to callers. None of them touch the error slot.
var (
	// ErrNoSession is returned by operations that need an active account.
	ErrNoSession = errors.New("no active account")

	// ErrBusy is returned when the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrInvalidInput is returned when required fields are empty.
	ErrInvalidInput = errors.New("username and domain are required")

	// ErrStale is returned when a result was discarded because the
	// session or the selection changed while the request was in flight.
	ErrStale = errors.New("result discarded: session changed")

	// ErrUnknownMessage is returned when selecting an id that is not in
	// the current inbox listing.
	ErrUnknownMessage = errors.New("message is not in the inbox")
)

// Display strings written to the error slot.
const (
	msgCreateFailed   = "Failed to create account"
	msgLoginFailed    = "Failed to log in"
	msgDomainsFailed  = "Failed to fetch domains"
	msgRefreshFailed  = "Failed to fetch messages"
	msgSessionExpired = "Session expired. Log out and create a new address."
	msgDetailsFailed  = "Failed to fetch message details"
	msgDeleteFailed   = "Failed to delete message"
	msgSourceFailed   = "Failed to download message source"
	msgCopyFailed     = "Failed to copy to clipboard"
	msgSaveFailed     = "Failed to save session"
	msgLoadFailed     = "Failed to load saved session"
	msgClearFailed    = "Failed to clear session"
	msgAccountFailed  = "Failed to delete account"
)
