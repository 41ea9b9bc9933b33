package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorKey     ctxKey = "actor"
)

const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
)

// Actor is the authenticated caller as carried by the bearer token.
type Actor struct {
	UserID      string
	WorkplaceID string
	EmployeeID  string
	Role        string
}

func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
