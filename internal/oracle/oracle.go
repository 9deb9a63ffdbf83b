package oracle

import "context"

// Oracle turns a unit's situation into a decision. Implementations must
// honour ctx; the scheduler substitutes a default decision on error.
type Oracle interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, req Request) (Decision, error)

func (f Func) Decide(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}
