package service

import (
	"errors"
	"sort"
	"strings"
)

// Messages returned to callers for authentication failures.
const (
	MsgNotLoggedIn        = "Not logged in"
	MsgPleaseLogin        = "Please login!"
	MsgInvalidCredentials = "Invalid credentials"
)

// ErrExportDisabled is returned by exports when no object storage is configured.
var ErrExportDisabled = errors.New("saved book export is not configured")

// AuthenticationError is surfaced to the caller verbatim. It never carries
// credential material.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func NewAuthenticationError(msg string) *AuthenticationError {
	return &AuthenticationError{Message: msg}
}

// ValidationError reports caller input that can be corrected and resubmitted.
// Fields maps input field names to the rule they failed.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
