package testutil

import (
	"context"
	"time"

	"crossgate/pkg/requestcontext"
)

// Context returns a background context with the actor identity and a fixed
// request time injected, matching what the HTTP middleware chain would set.
func Context(actorID, actorRole string, at time.Time) context.Context {
	ctx := context.Background()
	ctx = requestcontext.WithActorID(ctx, actorID)
	ctx = requestcontext.WithActorRole(ctx, actorRole)
	ctx = requestcontext.WithTime(ctx, at)
	return ctx
}
