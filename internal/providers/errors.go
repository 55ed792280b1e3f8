package providers

import "fmt"

// ConfigurationError covers unrecoverable setup problems: an unknown provider
// id or a missing credential. It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "provider configuration: " + e.Reason
}

// ProviderError wraps a network, auth, or rate-limit failure from a model API,
// tagged with the provider that produced it.
type ProviderError struct {
	Provider ID
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedOutputError means the model replied but the reply was not JSON,
// even after fence stripping. RawText preserves the reply for diagnostics.
type MalformedOutputError struct {
	RawText string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("model output is not valid JSON: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }
