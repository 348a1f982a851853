package service

import "context"

// ClientInfo describes the caller of a request, recorded with auth events.
type ClientInfo struct {
	IP        string
	UserAgent string
	RequestID string
}

type clientInfoKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info, ok
}
