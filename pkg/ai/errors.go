package ai

import (
	"fmt"

	"reviewloop/pkg/domain"
)

type ErrorKind string

const (
	// KindMissingCredentials means no API key was supplied; detected before
	// any network call is made.
	KindMissingCredentials ErrorKind = "missing_credentials"
	// KindMalformedResponse means the vendor answered but its message
	// content could not be parsed into reviews.
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindUpstreamFailure covers network errors, timeouts, and non-2xx
	// vendor responses.
	KindUpstreamFailure ErrorKind = "upstream_failure"
)

// ProviderError is the single error type surfaced by provider adapters.
type ProviderError struct {
	Provider   domain.Provider
	Kind       ErrorKind
	StatusCode int
	Message    string
	// Raw carries the unparsed model output for malformed responses so the
	// caller can log it for diagnostics.
	Raw string
	Err error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindMissingCredentials:
		return fmt.Sprintf("%s: api key missing", e.Provider)
	case KindMalformedResponse:
		return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Message)
	default:
		if e.StatusCode > 0 {
			return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

func missingCredentials(p domain.Provider) *ProviderError {
	return &ProviderError{Provider: p, Kind: KindMissingCredentials}
}

func malformedResponse(p domain.Provider, raw string, err error) *ProviderError {
	msg := "unparseable model output"
	if err != nil {
		msg = err.Error()
	}
	return &ProviderError{Provider: p, Kind: KindMalformedResponse, Message: msg, Raw: raw, Err: err}
}

func upstreamFailure(p domain.Provider, status int, msg string, err error) *ProviderError {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &ProviderError{Provider: p, Kind: KindUpstreamFailure, StatusCode: status, Message: msg, Err: err}
}
