package generator

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model produced no usable text
var ErrEmptyResponse = errors.New("generator returned empty response")

// Generator produces text from a prompt. Failures mean "no content
// produced": callers log and skip rather than crash.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to the Generator interface, used in tests
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
