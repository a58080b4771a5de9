package backend

import "context"

type ctxKey string

const accessTokenKey ctxKey = "access_token"

// WithAccessToken forwards the shopper's bearer token to backend calls.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func AccessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}
