package optimistic

import "context"

// Confirmer gates irreversible mutations behind a blocking user prompt.
// Hard deletes do not begin their two-phase mutation until the confirmer
// answers true.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt. Useful in tests and scripted runs.
func AlwaysConfirm() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return true })
}

// NeverConfirm declines every prompt.
func NeverConfirm() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return false })
}
