package generation

import "context"

type admissionKey struct{}

// WithAdmission returns a copy of ctx that carries admission, the context a
// Client should observe while it waits for permission to call its backend.
// Callers that detach the call itself from cancellation use it so that
// queued calls still stop when the caller gives up.
func WithAdmission(ctx, admission context.Context) context.Context {
	return context.WithValue(ctx, admissionKey{}, admission)
}

// Admission returns the admission context carried by ctx, or ctx itself.
func Admission(ctx context.Context) context.Context {
	if admission, ok := ctx.Value(admissionKey{}).(context.Context); ok && admission != nil {
		return admission
	}
	return ctx
}
