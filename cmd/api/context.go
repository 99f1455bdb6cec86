package main

import (
	"context"
	"net/http"

	"github.com/KamilDonda/MovieRecommender/internal/data"
)

type contextKey string

const (
	userContextKey      = contextKey("user")
	requestIDContextKey = contextKey("requestID")
)

// contextSetUser returns a copy of the request with the user added to its
// context. The authenticate middleware calls this for every request, storing
// AnonymousUser when no valid token was presented.
func (app *application) contextSetUser(r *http.Request, user *data.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// contextGetUser retrieves the user from the request context. It is only
// called on requests that went through the authenticate middleware, so a
// missing value is a wiring bug and panicking is the right response.
func (app *application) contextGetUser(r *http.Request) *data.User {
	user, ok := r.Context().Value(userContextKey).(*data.User)
	if !ok {
		panic("missing user value in request context")
	}
	return user
}

func (app *application) contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

// contextGetRequestID returns the request ID, or "" for requests that did not
// pass through the requestID middleware (only possible in tests).
func (app *application) contextGetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
