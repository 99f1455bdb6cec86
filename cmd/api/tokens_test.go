package main

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCreateAuthenticationToken(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	ts.registerUser(t, "alice@example.com")

	t.Run("unknown email", func(t *testing.T) {
		status, _, _ := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "pa55word1234",
		})
		if status != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", status, http.StatusUnauthorized)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		status, _, _ := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wr0ngpa55word",
		})
		if status != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", status, http.StatusUnauthorized)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		status, _, body := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{})
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("got status %d, want %d", status, http.StatusUnprocessableEntity)
		}

		errs := validationErrors(t, body)
		if errs["email"] != "must be provided" {
			t.Errorf("got %q for email, want %q", errs["email"], "must be provided")
		}
		if errs["password"] != "must be provided" {
			t.Errorf("got %q for password, want %q", errs["password"], "must be provided")
		}
	})

	t.Run("valid credentials", func(t *testing.T) {
		status, _, body := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
			"email":    "alice@example.com",
			"password": "pa55word1234",
		})
		if status != http.StatusCreated {
			t.Fatalf("got status %d, want %d: %s", status, http.StatusCreated, body)
		}

		var response struct {
			AuthenticationToken struct {
				Token string `json:"token"`
			} `json:"authentication_token"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			t.Fatal(err)
		}
		if len(response.AuthenticationToken.Token) != 26 {
			t.Errorf("got token of length %d, want 26", len(response.AuthenticationToken.Token))
		}

		status, _, _ = ts.do(t, http.MethodGet, "/v1/users/me", response.AuthenticationToken.Token, nil)
		if status != http.StatusOK {
			t.Errorf("new token rejected: got status %d, want %d", status, http.StatusOK)
		}
	})
}

func TestDeleteAuthenticationTokens(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	// Sign in twice: sign-out must revoke both sessions.
	first := ts.registerUser(t, "alice@example.com")

	status, _, body := ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
		"email":    "alice@example.com",
		"password": "pa55word1234",
	})
	if status != http.StatusCreated {
		t.Fatalf("got status %d, want %d", status, http.StatusCreated)
	}
	var response struct {
		AuthenticationToken struct {
			Token string `json:"token"`
		} `json:"authentication_token"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}
	second := response.AuthenticationToken.Token

	status, _, _ = ts.do(t, http.MethodDelete, "/v1/tokens/authentication", first, nil)
	if status != http.StatusOK {
		t.Fatalf("got status %d, want %d", status, http.StatusOK)
	}

	for _, token := range []string{first, second} {
		status, _, _ := ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("revoked token accepted: got status %d, want %d", status, http.StatusUnauthorized)
		}
	}
}
