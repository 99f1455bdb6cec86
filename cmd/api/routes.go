package main

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodPost, "/v1/users", app.registerUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.requireAuthenticatedUser(app.showCurrentUserHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/password", app.requireAuthenticatedUser(app.updateUserPasswordHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/users", app.requireAuthenticatedUser(app.deleteUserHandler))

	router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication", app.createAuthenticationTokenHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/tokens/authentication", app.requireAuthenticatedUser(app.deleteAuthenticationTokensHandler))

	router.HandlerFunc(http.MethodGet, "/v1/session/watch", app.requireAuthenticatedUser(app.watchSessionHandler))

	router.HandlerFunc(http.MethodGet, "/v1/movies", app.requireAuthenticatedUser(app.listMoviesHandler))
	router.HandlerFunc(http.MethodPost, "/v1/movies", app.requireAuthenticatedUser(app.createMovieHandler))
	router.HandlerFunc(http.MethodGet, "/v1/movies/:id", app.requireAuthenticatedUser(app.showMovieHandler))
	router.HandlerFunc(http.MethodPut, "/v1/movies/:id", app.requireAuthenticatedUser(app.updateMovieHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/movies/:id", app.requireAuthenticatedUser(app.deleteMovieHandler))
	router.HandlerFunc(http.MethodGet, "/v1/movies/:id/poster", app.requireAuthenticatedUser(app.showMoviePosterHandler))

	router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())

	return app.metrics(app.recoverPanic(app.requestID(app.enableCORS(app.rateLimit(app.authenticate(router))))))
}
