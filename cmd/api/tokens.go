package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/KamilDonda/MovieRecommender/internal/data"
	"github.com/KamilDonda/MovieRecommender/internal/session"
	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// createAuthenticationTokenHandler is sign-in: it exchanges an email and
// password for a 24-hour bearer token.
func (app *application) createAuthenticationTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	data.ValidateEmail(v, input.Email)
	data.ValidatePasswordPlaintext(v, input.Password)

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByEmail(input.Email)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			// Indistinguishable from a wrong password, so the response leaks
			// nothing about which emails are registered.
			app.invalidCredentialsResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	token, err := app.models.Tokens.New(user.ID, 24*time.Hour, data.ScopeAuthentication)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.broadcaster.Publish(user.ID, session.NewEvent(true, session.ReasonSignedIn))

	err = app.writeJSON(w, http.StatusCreated, envelope{"authentication_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteAuthenticationTokensHandler is sign-out: it revokes every
// authentication token the current user holds, on this device and any other.
func (app *application) deleteAuthenticationTokensHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	err := app.models.Tokens.DeleteAllForUser(data.ScopeAuthentication, user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.broadcaster.Publish(user.ID, session.NewEvent(false, session.ReasonSignedOut))

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "all authentication tokens for your account have been revoked"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
