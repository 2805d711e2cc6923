// Package identity turns a bearer credential into a worker record.
//
// The core never issues credentials. A Resolver only verifies a token minted
// elsewhere and binds its subject to a Worker row, creating the row the first
// time the subject is seen.
package identity

import (
	"context"

	"github.com/HIMANADH789/careworkers/internal/models"
)

// Identity is the resolved caller carried through a request.
type Identity struct {
	WorkerID uint
	Role     models.Role
	Name     string
	Email    string
}

func (i Identity) Authenticated() bool { return i.WorkerID != 0 }

func (i Identity) IsManager() bool { return i.Role == models.RoleManager }

func FromWorker(w *models.Worker) Identity {
	return Identity{WorkerID: w.ID, Role: w.Role, Name: w.Name, Email: w.Email}
}

// Resolver maps a raw bearer token to an identity. Any verification failure
// is reported as models.ErrUnauthenticated.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Authenticated()
}
