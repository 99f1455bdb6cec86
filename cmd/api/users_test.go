package main

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegisterUserValidation(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		password     string
		confirmation string
		wantField    string
		wantMessage  string
	}{
		{
			name:         "missing email",
			email:        "",
			password:     "pa55word1234",
			confirmation: "pa55word1234",
			wantField:    "email",
			wantMessage:  "must be provided",
		},
		{
			name:         "malformed email",
			email:        "not-an-email",
			password:     "pa55word1234",
			confirmation: "pa55word1234",
			wantField:    "email",
			wantMessage:  "must be a valid email address",
		},
		{
			name:         "missing password",
			email:        "alice@example.com",
			password:     "",
			confirmation: "",
			wantField:    "password",
			wantMessage:  "must be provided",
		},
		{
			name:         "short password",
			email:        "alice@example.com",
			password:     "pa55",
			confirmation: "pa55",
			wantField:    "password",
			wantMessage:  "must be at least 8 bytes long",
		},
		{
			name:         "mismatched confirmation",
			email:        "alice@example.com",
			password:     "pa55word1234",
			confirmation: "pa55word9999",
			wantField:    "password_confirmation",
			wantMessage:  "does not match password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApplication(t)
			ts := newTestServer(t, app)

			status, _, body := ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
				"email":                 tt.email,
				"password":              tt.password,
				"password_confirmation": tt.confirmation,
			})

			if status != http.StatusUnprocessableEntity {
				t.Fatalf("got status %d, want %d: %s", status, http.StatusUnprocessableEntity, body)
			}

			errs := validationErrors(t, body)
			if errs[tt.wantField] != tt.wantMessage {
				t.Errorf("got %q for field %q, want %q", errs[tt.wantField], tt.wantField, tt.wantMessage)
			}
		})
	}
}

func TestRegisterUser(t *testing.T) {
	app, mailer := newTestApplication(t)
	ts := newTestServer(t, app)

	token := ts.registerUser(t, "alice@example.com")

	// The returned token must authenticate immediately.
	status, _, _ := ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Errorf("fresh token rejected: got status %d, want %d", status, http.StatusOK)
	}

	// The welcome email is sent from a background goroutine tracked by the
	// application WaitGroup.
	app.wg.Wait()

	sends := mailer.sent()
	if len(sends) != 1 {
		t.Fatalf("got %d emails, want 1", len(sends))
	}
	if sends[0].recipient != "alice@example.com" || sends[0].templateFile != "user_welcome.tmpl" {
		t.Errorf("got email %+v, want user_welcome.tmpl to alice@example.com", sends[0])
	}
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	ts.registerUser(t, "alice@example.com")

	status, _, body := ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
		"email":                 "ALICE@example.com",
		"password":              "pa55word1234",
		"password_confirmation": "pa55word1234",
	})

	if status != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want %d", status, http.StatusUnprocessableEntity)
	}

	errs := validationErrors(t, body)
	if errs["email"] != "a user with this email address already exists" {
		t.Errorf("got %q, want duplicate email message", errs["email"])
	}
}

func TestShowCurrentUser(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	token := ts.registerUser(t, "alice@example.com")

	status, _, body := ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("got status %d, want %d", status, http.StatusOK)
	}

	var response struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}
	if response.User.Email != "alice@example.com" {
		t.Errorf("got email %q, want alice@example.com", response.User.Email)
	}

	status, _, _ = ts.do(t, http.MethodGet, "/v1/users/me", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("anonymous request: got status %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	app, mailer := newTestApplication(t)
	ts := newTestServer(t, app)

	token := ts.registerUser(t, "alice@example.com")

	// Reauthentication: the wrong current password is rejected before
	// anything changes.
	status, _, _ := ts.do(t, http.MethodPut, "/v1/users/password", token, map[string]string{
		"password":                  "wr0ngpa55word",
		"new_password":              "n3wpa55word",
		"new_password_confirmation": "n3wpa55word",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong current password: got status %d, want %d", status, http.StatusUnauthorized)
	}

	status, _, body := ts.do(t, http.MethodPut, "/v1/users/password", token, map[string]string{
		"password":                  "pa55word1234",
		"new_password":              "n3wpa55word",
		"new_password_confirmation": "n0tthesame",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("mismatched confirmation: got status %d, want %d", status, http.StatusUnprocessableEntity)
	}
	errs := validationErrors(t, body)
	if errs["new_password_confirmation"] != "does not match new password" {
		t.Errorf("got %q, want mismatch message", errs["new_password_confirmation"])
	}

	status, _, body = ts.do(t, http.MethodPut, "/v1/users/password", token, map[string]string{
		"password":                  "pa55word1234",
		"new_password":              "n3wpa55word",
		"new_password_confirmation": "n3wpa55word",
	})
	if status != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", status, http.StatusOK, body)
	}

	var response struct {
		AuthenticationToken struct {
			Token string `json:"token"`
		} `json:"authentication_token"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}

	// The old token was revoked, the fresh one works.
	status, _, _ = ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("old token: got status %d, want %d", status, http.StatusUnauthorized)
	}
	status, _, _ = ts.do(t, http.MethodGet, "/v1/users/me", response.AuthenticationToken.Token, nil)
	if status != http.StatusOK {
		t.Errorf("new token: got status %d, want %d", status, http.StatusOK)
	}

	// Sign-in with the new password works.
	status, _, _ = ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
		"email":    "alice@example.com",
		"password": "n3wpa55word",
	})
	if status != http.StatusCreated {
		t.Errorf("sign-in with new password: got status %d, want %d", status, http.StatusCreated)
	}

	app.wg.Wait()

	var changed bool
	for _, send := range mailer.sent() {
		if send.templateFile == "password_changed.tmpl" {
			changed = true
		}
	}
	if !changed {
		t.Error("no password-changed email was sent")
	}
}

func TestDeleteUser(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	token := ts.registerUser(t, "alice@example.com")
	movieID := ts.createMovie(t, token, map[string]any{"title": "Heat"})

	// Reauthentication applies here too.
	status, _, _ := ts.do(t, http.MethodDelete, "/v1/users", token, map[string]string{
		"password": "wr0ngpa55word",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: got status %d, want %d", status, http.StatusUnauthorized)
	}

	status, _, _ = ts.do(t, http.MethodDelete, "/v1/users", token, map[string]string{
		"password": "pa55word1234",
	})
	if status != http.StatusOK {
		t.Fatalf("got status %d, want %d", status, http.StatusOK)
	}

	// Tokens die with the account.
	status, _, _ = ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("deleted account token: got status %d, want %d", status, http.StatusUnauthorized)
	}

	// The movie list died with it too: a re-registered account under the same
	// email starts empty.
	token = ts.registerUser(t, "alice@example.com")
	status, _, _ = ts.do(t, http.MethodGet, moviePath(movieID), token, nil)
	if status != http.StatusNotFound {
		t.Errorf("movie after account deletion: got status %d, want %d", status, http.StatusNotFound)
	}
}
