package appctx

import (
	"context"
)

type ctxKey string

const (
	CategoryIDKey ctxKey = "categoryID"
	RequestIDKey  ctxKey = "requestID"
)

func CategoryIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CategoryIDKey).(string)
	return id, ok
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok
}
