package app

import (
	"errors"
	"fmt"

	"reviewloop/pkg/ai"
	"reviewloop/pkg/domain"
)

// ErrNoTemplates indicates a business has no active templates to serve or
// rewrite from.
var ErrNoTemplates = errors.New("no active templates")

type GenerationErrorKind string

const (
	// KindUnsupportedProvider means no adapter is registered for the
	// requested provider id.
	KindUnsupportedProvider GenerationErrorKind = "unsupported_provider"
	// KindMissingCredentials means no usable API key could be resolved for
	// the (business, provider) pair.
	KindMissingCredentials GenerationErrorKind = "missing_credentials"
	// KindGenerationFailed wraps a provider-level failure (upstream error,
	// malformed output).
	KindGenerationFailed GenerationErrorKind = "generation_failed"
)

// GenerationError is the error type surfaced by explicit generation
// requests. It carries enough context to render a user-facing message.
type GenerationError struct {
	Kind     GenerationErrorKind
	Provider domain.Provider
	Model    string
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case KindUnsupportedProvider:
		return fmt.Sprintf("provider %q not supported", e.Provider)
	case KindMissingCredentials:
		return fmt.Sprintf("no API key configured for provider %s", e.Provider)
	default:
		if e.Message != "" {
			return fmt.Sprintf("generation failed (%s/%s): %s", e.Provider, e.Model, e.Message)
		}
		return fmt.Sprintf("generation failed (%s/%s)", e.Provider, e.Model)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

func unsupportedProvider(p domain.Provider) *GenerationError {
	return &GenerationError{Kind: KindUnsupportedProvider, Provider: p}
}

func missingCredentials(p domain.Provider) *GenerationError {
	return &GenerationError{Kind: KindMissingCredentials, Provider: p}
}

// generationFailed wraps an adapter error, lifting the vendor message when
// one is present. A credentials failure detected inside the adapter keeps
// its own kind so callers see one consistent taxonomy.
func generationFailed(p domain.Provider, model string, err error) *GenerationError {
	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		if pe.Kind == ai.KindMissingCredentials {
			return &GenerationError{Kind: KindMissingCredentials, Provider: p, Err: err}
		}
		return &GenerationError{Kind: KindGenerationFailed, Provider: p, Model: model, Message: pe.Message, Err: err}
	}
	return &GenerationError{Kind: KindGenerationFailed, Provider: p, Model: model, Message: err.Error(), Err: err}
}
