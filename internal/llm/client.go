// Package llm turns free-text bridge requirements into a design intent by
// asking a chain of language-model providers in turn.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means a provider was skipped because it has no usable
	// credentials or endpoint. Skipped providers are not counted as attempts.
	ErrNotConfigured = errors.New("llm: provider not configured")
	// ErrAllProvidersFailed is returned when every provider in the chain failed.
	ErrAllProvidersFailed = errors.New("llm: all providers failed")
)

// Client is a single provider that answers a prompt with a JSON document.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error)
}

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares left to right: Wrap(c, A, B) is A(B(c)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// StatusError is a provider failure. Temporary failures (5xx, transport)
// are retried; everything else ends the provider's turn.
type StatusError struct {
	Provider  string
	Code      int
	Body      string
	Err       error
	Temporary bool
}

func (e *StatusError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s: http %d: %s", e.Provider, e.Code, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return e.Provider + ": request failed"
}

func (e *StatusError) Unwrap() error { return e.Err }

func httpError(provider string, code int, body string) error {
	return &StatusError{Provider: provider, Code: code, Body: body, Temporary: code >= 500 && code < 600}
}

func transportError(provider string, err error) error {
	return &StatusError{Provider: provider, Err: err, Temporary: true}
}

func decodeError(provider string, err error) error {
	return &StatusError{Provider: provider, Err: fmt.Errorf("decode response: %w", err)}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Temporary
}
