package main

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	status, header, body := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)

	if status != http.StatusOK {
		t.Errorf("got status %d, want %d", status, http.StatusOK)
	}
	if ct := header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("got Content-Type %q, want application/json", ct)
	}
	if header.Get("X-Request-ID") == "" {
		t.Error("response carried no X-Request-ID header")
	}

	var response struct {
		Status     string            `json:"status"`
		SystemInfo map[string]string `json:"system_info"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}

	if response.Status != "available" {
		t.Errorf("got status %q, want %q", response.Status, "available")
	}
	if response.SystemInfo["environment"] != "test" {
		t.Errorf("got environment %q, want %q", response.SystemInfo["environment"], "test")
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app)

	status, _, _ := ts.do(t, http.MethodGet, "/v1/nonexistent", "", nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown path: got status %d, want %d", status, http.StatusNotFound)
	}

	status, _, _ = ts.do(t, http.MethodDelete, "/v1/healthcheck", "", nil)
	if status != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: got status %d, want %d", status, http.StatusMethodNotAllowed)
	}
}
