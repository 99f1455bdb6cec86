package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KamilDonda/MovieRecommender/internal/cache"
	"github.com/KamilDonda/MovieRecommender/internal/config"
	"github.com/KamilDonda/MovieRecommender/internal/data"
	"github.com/KamilDonda/MovieRecommender/internal/poster"
	"github.com/KamilDonda/MovieRecommender/internal/session"
)

// mockMailer records sends instead of dialing an SMTP server.
type mockMailer struct {
	mu    sync.Mutex
	sends []mockSend
}

type mockSend struct {
	recipient    string
	templateFile string
}

func (m *mockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, mockSend{recipient: recipient, templateFile: templateFile})
	return nil
}

func (m *mockMailer) sent() []mockSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockSend(nil), m.sends...)
}

func newTestApplication(t *testing.T) (*application, *mockMailer) {
	t.Helper()

	cfg := &config.Config{
		Env: "test",
	}
	cfg.Limiter.Enabled = false

	logger := zerolog.Nop()

	posterCache, err := cache.New("memory", cache.ProviderConfig{
		Size:   16,
		TTL:    time.Minute,
		Logger: cacheLogger{logger},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { posterCache.Close() })

	mailer := &mockMailer{}

	broadcaster := session.NewBroadcaster()
	t.Cleanup(broadcaster.Close)

	app := &application{
		config:      cfg,
		logger:      logger,
		models:      data.NewMockModels(),
		mailer:      mailer,
		broadcaster: broadcaster,
		posters: poster.NewFetcher(poster.Config{
			Cache:     posterCache,
			Timeout:   5 * time.Second,
			MaxBytes:  1 << 20,
			UserAgent: "MovieRecommender-test",
			Logger:    logger,
		}),
	}

	return app, mailer
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, app *application) *testServer {
	t.Helper()

	ts := httptest.NewServer(app.routes())
	t.Cleanup(ts.Close)

	return &testServer{ts}
}

// do performs a JSON request against the test server. A non-nil body is
// marshalled to JSON; a non-empty token goes in the Authorization header.
func (ts *testServer) do(t *testing.T, method, urlPath, token string, body any) (int, http.Header, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.URL+urlPath, reqBody)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	return resp.StatusCode, resp.Header, respBody
}

// registerUser creates an account through the API and returns its token.
func (ts *testServer) registerUser(t *testing.T, email string) string {
	t.Helper()

	status, _, body := ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
		"email":                 email,
		"password":              "pa55word1234",
		"password_confirmation": "pa55word1234",
	})
	if status != http.StatusCreated {
		t.Fatalf("registering %s: got status %d: %s", email, status, body)
	}

	var response struct {
		AuthenticationToken struct {
			Token string `json:"token"`
		} `json:"authentication_token"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}
	if response.AuthenticationToken.Token == "" {
		t.Fatal("registration response carried no authentication token")
	}

	return response.AuthenticationToken.Token
}

// createMovie creates a movie through the API and returns its ID.
func (ts *testServer) createMovie(t *testing.T, token string, movie map[string]any) int64 {
	t.Helper()

	status, _, body := ts.do(t, http.MethodPost, "/v1/movies", token, movie)
	if status != http.StatusCreated {
		t.Fatalf("creating movie: got status %d: %s", status, body)
	}

	var response struct {
		Movie struct {
			ID int64 `json:"id"`
		} `json:"movie"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatal(err)
	}

	return response.Movie.ID
}

// validationErrors unpacks a 422 response body into its field→message map.
func validationErrors(t *testing.T, body []byte) map[string]string {
	t.Helper()

	var response struct {
		Error map[string]string `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("unmarshalling validation errors from %q: %v", body, err)
	}

	return response.Error
}

func moviePath(id int64) string {
	return fmt.Sprintf("/v1/movies/%d", id)
}
