package openai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed generation so callers can pick the right
// user-facing message without inspecting provider internals.
type ErrorKind string

const (
	// KindRateLimited: the provider rejected the call for request volume.
	KindRateLimited ErrorKind = "rate_limited"
	// KindUnauthorized: the provider rejected our credential.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindProviderUnavailable: provider-side failure, transport failure, or
	// a call that exceeded the bounded wait.
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	// KindResponseInvalid: the call succeeded but the returned text does not
	// parse into the expected structure.
	KindResponseInvalid ErrorKind = "response_invalid"
	// KindOther: any other provider-side failure; Detail carries the cause.
	KindOther ErrorKind = "other"
)

// GenerationError is the classified failure of a generation call. Detail is
// for logs and job bookkeeping only; UserMessage is what clients may see.
type GenerationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Detail)
}

// UserMessage maps the classification to a generic, retry-prompting message.
// Raw provider detail is never surfaced to end users.
func (e *GenerationError) UserMessage() string {
	switch e.Kind {
	case KindRateLimited:
		return "The meal plan service is busy right now. Please try again in a few minutes."
	case KindUnauthorized:
		return "The meal plan service is misconfigured. Please contact support."
	case KindProviderUnavailable:
		return "The meal plan service is temporarily unavailable. Please try again later."
	case KindResponseInvalid:
		return "We could not produce a valid meal plan. Please try again."
	default:
		return "Meal plan generation failed. Please try again."
	}
}

func newGenerationError(kind ErrorKind, format string, args ...any) *GenerationError {
	return &GenerationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NewResponseInvalid marks a response that arrived but could not be used.
func NewResponseInvalid(detail string) *GenerationError {
	return &GenerationError{Kind: KindResponseInvalid, Detail: detail}
}

// UserMessageFor resolves the client-facing message for any error from a
// generation run. Unclassified errors get the generic message.
func UserMessageFor(err error) string {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.UserMessage()
	}
	return (&GenerationError{Kind: KindOther}).UserMessage()
}
