package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrRejected means the backend refused the credentials or token.
	ErrRejected = errors.New("authentication rejected")
	// ErrUnavailable covers network failures and 5xx answers.
	ErrUnavailable = errors.New("service unavailable")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("access forbidden")
	// ErrBadRequest is a 400 on a call that carries no credentials to refuse.
	ErrBadRequest = errors.New("request refused by backend")

	ErrSessionBusy          = errors.New("session operation already in progress")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrSuperseded           = errors.New("session changed while request was in flight")
	ErrAlreadySubmitted     = errors.New("form already submitted")
)

// ValidationErrors maps a field name to the messages the backend returned
// for it. Non-field errors use the key "non_field_errors".
type ValidationErrors map[string][]string

// String renders the errors as "field: msg1, msg2; other: msg" with keys in
// sorted order.
func (v ValidationErrors) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// ValidationError carries field-level errors from a rejected write.
type ValidationError struct {
	Fields ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}
