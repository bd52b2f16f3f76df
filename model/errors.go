package model

import (
	"errors"
	"fmt"
)

// ErrorKind separates user mistakes from everything else.
type ErrorKind int

const (
	// KindValidation marks malformed or insufficient user input.
	KindValidation ErrorKind = iota
	// KindInternal marks any other failure.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the tagged error returned across the generation pipeline.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Internalf returns an internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// WrapInternal tags err as internal. An error that already carries a kind
// keeps it; nil stays nil.
func WrapInternal(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err. Untagged errors are internal.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsInternal reports whether err is an internal error.
func IsInternal(err error) bool {
	return err != nil && KindOf(err) == KindInternal
}

// AsError converts any error into a tagged *Error, tagging untagged errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return &Error{Kind: KindInternal, Err: err}
}
