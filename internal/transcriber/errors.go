package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// Class is the coarse error category surfaced to observers, so the
// presentation layer can map failures to user-facing copy without parsing
// raw messages.
type Class string

const (
	ClassMissingAPIKey Class = "missing_api_key"
	ClassNetwork       Class = "network_error"
	ClassService       Class = "api_error"
	ClassEmptyResult   Class = "empty_result"
	ClassOther         Class = "transcription_error"
)

// Error is a classified transcription failure.
type Error struct {
	Class    Class
	Provider string
	Status   int // HTTP status when Class is ClassService, 0 otherwise
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code(), e.Err)
	}
	return e.Code()
}

// Code renders the class in the "<class>:<provider>" form consumed by
// status observers.
func (e *Error) Code() string {
	if e.Provider != "" {
		return string(e.Class) + ":" + e.Provider
	}
	return string(e.Class)
}

func (e *Error) Unwrap() error { return e.Err }

// statusError is a non-2xx response from one of the raw HTTP adapters.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API status %d: %s", e.status, e.body)
}

// Classify derives an error class from typed transport failures rather than
// substring matching on messages.
func Classify(providerName string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Class: ClassNetwork, Provider: providerName, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Class: ClassService, Provider: providerName, Status: apiErr.HTTPStatusCode, Err: err}
	}

	var stErr *statusError
	if errors.As(err, &stErr) {
		return &Error{Class: ClassService, Provider: providerName, Status: stErr.status, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Class: ClassNetwork, Provider: providerName, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Class: ClassNetwork, Provider: providerName, Err: err}
	}

	return &Error{Class: ClassOther, Provider: providerName, Err: err}
}
