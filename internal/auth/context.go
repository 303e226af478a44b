package auth

import (
	"context"

	"github.com/MrErgashev/quiz-app/internal/account"
)

type ctxKey string

const (
	ctxKeySub     ctxKey = "sub"
	ctxKeyAccount ctxKey = "account"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySub).(string); ok {
		return s
	}
	return ""
}

func WithAccount(ctx context.Context, a account.Account) context.Context {
	return context.WithValue(ctx, ctxKeyAccount, a)
}

func AccountFromContext(ctx context.Context) (account.Account, bool) {
	a, ok := ctx.Value(ctxKeyAccount).(account.Account)
	return a, ok
}
