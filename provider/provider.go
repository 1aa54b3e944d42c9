package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies an inference failure.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "model_unavailable"
	KindTimeout     ErrorKind = "model_timeout"
	KindMalformed   ErrorKind = "malformed_output"
)

// Error is a categorized inference failure. Message is safe to show to
// consumers; the raw provider error stays behind Unwrap for logs.
type Error struct {
	Kind    ErrorKind
	Model   string
	Message string
	cause   error
}

// NewError wraps cause under a categorized, presentable message.
func NewError(kind ErrorKind, model string, cause error) *Error {
	msg := "analysis model unavailable"
	switch kind {
	case KindTimeout:
		msg = "analysis model timed out"
	case KindMalformed:
		msg = "analysis model returned unusable output"
	}
	return &Error{Kind: kind, Model: model, Message: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Model, e.cause)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Model)
}

func (e *Error) Unwrap() error { return e.cause }

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// Provider generates a completion for a prompt with a specific model.
type Provider interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}
