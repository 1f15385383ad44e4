//go:build !attest

package attest

import "context"

// GojaSolver is a stub when the 'attest' build tag is not enabled.
type GojaSolver struct{}

func NewGojaSolver() *GojaSolver { return nil }

// NewGojaSolverWithScript is a stub constructor for non-attest builds.
func NewGojaSolverWithScript(scriptPath string) *GojaSolver { return nil }

func (s *GojaSolver) Attest(ctx context.Context, input Input) (Output, error) {
	return Output{}, nil
}
