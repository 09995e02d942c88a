package errors

import (
	"errors"
	"fmt"
)

// Authorization taxonomy. Every value is terminal for the request that produced it.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoTenant           = errors.New("no tenant")
	ErrForbidden          = errors.New("forbidden")
	ErrRefreshInvalid     = errors.New("refresh credential invalid")
)

// General errors
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSeatLimitReached = errors.New("seat limit reached")
)

// Code is the stable, minimal identifier returned to clients.
type Code string

const (
	CodeInvalidCredentials Code = "InvalidCredentials"
	CodeAccountDisabled    Code = "AccountDisabled"
	CodeTokenInvalid       Code = "TokenInvalid"
	CodeTokenExpired       Code = "TokenExpired"
	CodeNoTenant           Code = "NoTenant"
	CodeForbidden          Code = "Forbidden"
	CodeRefreshInvalid     Code = "RefreshInvalid"
	CodeNotFound           Code = "NotFound"
	CodeConflict           Code = "Conflict"
	CodeInvalidRequest     Code = "InvalidRequest"
	CodeSeatLimitReached   Code = "SeatLimitReached"
	CodeInternal           Code = "Internal"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrAccountDisabled, CodeAccountDisabled},
	{ErrTokenExpired, CodeTokenExpired},
	{ErrTokenInvalid, CodeTokenInvalid},
	// a deleted user must look exactly like a bad token
	{ErrUserNotFound, CodeTokenInvalid},
	{ErrNoTenant, CodeNoTenant},
	{ErrForbidden, CodeForbidden},
	{ErrRefreshInvalid, CodeRefreshInvalid},
	{ErrNotFound, CodeNotFound},
	{ErrConflict, CodeConflict},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrSeatLimitReached, CodeSeatLimitReached},
}

// CodeOf maps err onto its external code. Anything outside the taxonomy, storage
// failures included, is CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsAuthorization reports whether err belongs to the authorization taxonomy rather than
// being an infrastructure failure.
func IsAuthorization(err error) bool {
	switch CodeOf(err) {
	case CodeInternal, "":
		return false
	}
	return true
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
