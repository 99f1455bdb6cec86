package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/KamilDonda/MovieRecommender/internal/data"
	"github.com/KamilDonda/MovieRecommender/internal/session"
	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// registerUserHandler creates a new account. Sign-up doubles as sign-in: the
// response carries an authentication token alongside the user, so a client
// can go straight to the movie list without a second request.
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &data.User{
		Email: input.Email,
	}

	err = user.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	v := validator.New()

	data.ValidateUser(v, user)
	v.Check(input.PasswordConfirmation == input.Password, "password_confirmation", "does not match password")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Users.Insert(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	token, err := app.models.Tokens.New(user.ID, 24*time.Hour, data.ScopeAuthentication)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.background(func() {
		err := app.mailer.Send(user.Email, "user_welcome.tmpl", user)
		if err != nil {
			app.logger.Error().Err(err).Str("email", user.Email).Msg("cannot send welcome email")
		}
	})

	app.broadcaster.Publish(user.ID, session.NewEvent(true, session.ReasonSignedIn))

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user, "authentication_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showCurrentUserHandler returns the authenticated user's account record.
func (app *application) showCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateUserPasswordHandler changes the password after reverifying the
// current one. Every existing token is revoked and a fresh one returned, so
// the calling client stays signed in while any other session ends.
func (app *application) updateUserPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password                string `json:"password"`
		NewPassword             string `json:"new_password"`
		NewPasswordConfirmation string `json:"new_password_confirmation"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(input.Password != "", "password", "must be provided")
	data.ValidatePasswordPlaintext(v, input.NewPassword)
	v.Check(input.NewPasswordConfirmation == input.NewPassword, "new_password_confirmation", "does not match new password")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user := app.contextGetUser(r)

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	err = user.Password.Set(input.NewPassword)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.models.Users.Update(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.models.Tokens.DeleteAllForUser(data.ScopeAuthentication, user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	token, err := app.models.Tokens.New(user.ID, 24*time.Hour, data.ScopeAuthentication)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.background(func() {
		err := app.mailer.Send(user.Email, "password_changed.tmpl", user)
		if err != nil {
			app.logger.Error().Err(err).Str("email", user.Email).Msg("cannot send password-changed email")
		}
	})

	// The old session is over even though the response hands out a new token;
	// watchers of the old session see the stream end.
	app.broadcaster.Publish(user.ID, session.NewEvent(false, session.ReasonPasswordUpdated))

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user, "authentication_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteUserHandler removes the account after reverifying the password.
// Tokens, movies and attributes cascade away with the user row.
func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if v.Check(input.Password != "", "password", "must be provided"); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user := app.contextGetUser(r)

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	err = app.models.Users.Delete(user.ID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.broadcaster.Publish(user.ID, session.NewEvent(false, session.ReasonAccountDeleted))

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "your account has been deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
