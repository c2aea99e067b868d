// Package access decides which lists a caller may read and change.
package access

import (
	"context"
	"net/http"
	"slices"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

// Policy grants owners full access to their lists and everyone read access to
// published lists.
type Policy struct {
	lists repo.ListRepository
}

func NewPolicy(lists repo.ListRepository) *Policy {
	return &Policy{lists: lists}
}

// Readable returns the ids of lists login may read. An empty login is an
// anonymous caller and sees only published lists.
func (p *Policy) Readable(ctx context.Context, login string) (model.ListScope, error) {
	var ids []int64
	if login != "" {
		owned, err := p.lists.ByOwner(ctx, login)
		if err != nil {
			return model.ListScope{}, err
		}
		for _, l := range owned {
			ids = append(ids, l.ID)
		}
	}

	published, err := p.lists.Published(ctx)
	if err != nil {
		return model.ListScope{}, err
	}
	for _, l := range published {
		if !slices.Contains(ids, l.ID) {
			ids = append(ids, l.ID)
		}
	}
	return model.ListScope{IDs: ids}, nil
}

// Writable returns the ids of lists login owns.
func (p *Policy) Writable(ctx context.Context, login string) (model.ListScope, error) {
	if login == "" {
		return model.ListScope{}, nil
	}
	owned, err := p.lists.ByOwner(ctx, login)
	if err != nil {
		return model.ListScope{}, err
	}
	ids := make([]int64, len(owned))
	for i, l := range owned {
		ids[i] = l.ID
	}
	return model.ListScope{IDs: ids}, nil
}

func (p *Policy) CanWrite(ctx context.Context, login string, listID int64) (bool, error) {
	scope, err := p.Writable(ctx, login)
	if err != nil {
		return false, err
	}
	return scope.Contains(listID), nil
}

type loginKey struct{}

// WithLogin stores the caller's login in ctx.
func WithLogin(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, loginKey{}, login)
}

// Login returns the login stored by WithLogin, or "" for anonymous callers.
func Login(ctx context.Context) string {
	login, _ := ctx.Value(loginKey{}).(string)
	return login
}

// Header is a middleware that takes the caller's login from a header set by
// the authenticating proxy in front of the service.
func Header(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login := r.Header.Get(name)
			next.ServeHTTP(w, r.WithContext(WithLogin(r.Context(), login)))
		})
	}
}
