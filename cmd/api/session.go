package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KamilDonda/MovieRecommender/internal/session"
)

// keepAliveInterval is how often an idle watch stream gets a comment line so
// proxies don't reap the connection.
const keepAliveInterval = 20 * time.Second

// watchSessionHandler streams the user's authentication-state changes as
// Server-Sent Events. The stream opens with an authenticated=true snapshot
// and ends when the client disconnects, when the session ends (any
// authenticated=false event), or when the server shuts down.
func (app *application) watchSessionHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverErrorResponse(w, r, errors.New("response writer does not support streaming"))
		return
	}

	// The stream is meant to outlive the server's WriteTimeout, which would
	// otherwise sever it at the absolute deadline regardless of activity.
	// Lift the deadline for this response only.
	err := http.NewResponseController(w).SetWriteDeadline(time.Time{})
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		app.serverErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	events, cancel := app.broadcaster.Subscribe(user.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The token was just verified, so the snapshot is authenticated by
	// definition.
	err = writeEvent(w, session.NewEvent(true, session.ReasonSignedIn))
	if err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case event, open := <-events:
			if !open {
				// Broadcaster closed: the server is shutting down.
				return
			}

			if err := writeEvent(w, event); err != nil {
				return
			}
			flusher.Flush()

			if !event.Authenticated {
				return
			}
		}
	}
}

// writeEvent writes one event in SSE wire format.
func writeEvent(w http.ResponseWriter, event session.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: auth_state\ndata: %s\n\n", data)
	return err
}
