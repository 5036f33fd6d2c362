package provider

import "context"

// TokenUsage counts the tokens consumed by one or more completions.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Request carries a single completion call to a vendor backend.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	APIKey       string
	MaxTokens    int
}

// Response is the normalized result shape every adapter produces.
type Response struct {
	Text  string
	Usage TokenUsage
}

// Adapter is the uniform call surface for one vendor backend. An adapter
// marshals the request to its vendor API and normalizes the response;
// it never retries and never lets a raw vendor error escape unwrapped.
type Adapter interface {
	Provider() Provider
	Complete(ctx context.Context, req Request) (Response, error)
}

// Error wraps any adapter-level failure (auth, transport, malformed
// response) so the orchestration layer can treat all backends alike.
type Error struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Provider) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Provider) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an adapter failure for the given provider.
func NewError(p Provider, message string, cause error) *Error {
	return &Error{Provider: p, Message: message, Cause: cause}
}
