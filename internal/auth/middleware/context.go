package auth

import (
	"context"

	"github.com/mind-engage/fapquiz/internal/report"
)

type ctxKey string

const (
	ctxKeySub      ctxKey = "sub"
	ctxKeyIdentity ctxKey = "identity"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithIdentity(ctx context.Context, id report.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the testee record of the token, if any.
func IdentityFromContext(ctx context.Context) (report.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(report.Identity)
	return id, ok
}
