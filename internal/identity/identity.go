package identity

import (
	"context"
)

// Claim is the verified identity of the caller for one request.
// Permission checks belong to the authz package, never to the claim itself.
type Claim struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (c Claim) IsZero() bool {
	return c.ID == ""
}

type ctxKey struct{}

func WithClaim(ctx context.Context, c Claim) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Claim, bool) {
	c, ok := ctx.Value(ctxKey{}).(Claim)

	return c, ok && !c.IsZero()
}
