package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RuleError is a business-rule violation. Code is stable and safe to expose to clients.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func rule(code, msg string) *RuleError {
	return &RuleError{Code: code, Message: msg}
}

var (
	ErrInsufficientFunds       = rule("insufficient_funds", "not enough cash to complete the purchase")
	ErrEmptyBasket             = rule("empty_basket", "basket is empty")
	ErrInviteExists            = rule("invite_exists", "invite already sent")
	ErrReverseInvitePending    = rule("reverse_invite_pending", "this user has already invited you")
	ErrInviteResolved          = rule("invite_resolved", "invite already resolved")
	ErrSelfInvite              = rule("self_invite", "cannot invite yourself")
	ErrAlreadyFriends          = rule("already_friends", "users are already friends")
	ErrNotFriends              = rule("not_friends", "users are not friends")
	ErrPasswordMatchesUsername = rule("password_matches_username", "password must differ from username")
	ErrSamePassword            = rule("same_password", "new password must differ from the old one")
	ErrInvalidCredentials      = rule("invalid_credentials", "invalid credentials")
	ErrInactiveUser            = rule("inactive_user", "account is not activated")
	ErrAlreadyActive           = rule("already_active", "account is already activated")
)

// CriticalError wraps a failure of an external system that must surface to the client
// without leaking details, such as the payment gateway.
type CriticalError struct {
	Op  string
	Err error
}

func (e *CriticalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CriticalError) Unwrap() error { return e.Err }

// Critical wraps err as a CriticalError.
func Critical(op string, err error) error {
	return &CriticalError{Op: op, Err: err}
}
