package engine

import "errors"

var (
	// ErrMissingArgument reports a required value that was not supplied.
	ErrMissingArgument = errors.New("missing argument")
	// ErrInvalidValue reports a malformed value such as an unknown instruction character.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDomainRule reports well-formed inputs whose combination violates a navigation rule.
	ErrDomainRule = errors.New("domain rule violation")
)
