package data

import (
	"crypto/sha256"
	"sort"
	"strings"
	"sync"
	"time"
)

// mockStore is the shared in-memory state behind the mock models. One store
// backs all three models so that cross-model behavior (token lookup joining
// users, account deletion cascading to movies and tokens) works in handler
// tests the same way the SQL schema makes it work in production.
type mockStore struct {
	mu          sync.Mutex
	nextMovieID int64
	nextUserID  int64
	movies      map[int64]*Movie
	users       map[int64]*User
	tokens      map[string]*Token // keyed by string(hash)
}

func newMockStore() *mockStore {
	return &mockStore{
		movies: make(map[int64]*Movie),
		users:  make(map[int64]*User),
		tokens: make(map[string]*Token),
	}
}

func copyMovie(movie *Movie) *Movie {
	clone := *movie
	clone.Attributes = append([]MovieAttribute(nil), movie.Attributes...)
	return &clone
}

func copyUser(user *User) *User {
	clone := *user
	clone.Password.hash = append([]byte(nil), user.Password.hash...)
	return &clone
}

// MockMovieModel is an in-memory stand-in for MovieModel.
type MockMovieModel struct {
	store *mockStore
}

func (m *MockMovieModel) Insert(movie *Movie) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.store.nextMovieID++
	movie.ID = m.store.nextMovieID
	movie.CreatedAt = time.Now()
	movie.Version = 1

	m.store.movies[movie.ID] = copyMovie(movie)
	return nil
}

func (m *MockMovieModel) Get(id, userID int64) (*Movie, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	movie, ok := m.store.movies[id]
	if !ok || movie.UserID != userID {
		return nil, ErrRecordNotFound
	}
	return copyMovie(movie), nil
}

func (m *MockMovieModel) GetAll(title, genre string, userID int64, filters Filters) ([]*Movie, Metadata, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	matched := []*Movie{}
	for _, movie := range m.store.movies {
		if movie.UserID != userID {
			continue
		}
		// Case-insensitive substring match approximates the full-text
		// search the SQL model performs.
		if title != "" && !strings.Contains(strings.ToLower(movie.Title), strings.ToLower(title)) {
			continue
		}
		if genre != "" && !strings.EqualFold(movie.Genre, genre) {
			continue
		}
		matched = append(matched, copyMovie(movie))
	}

	column := strings.TrimPrefix(filters.Sort, "-")
	descending := strings.HasPrefix(filters.Sort, "-")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if descending {
			a, b = b, a
		}
		switch column {
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case "year":
			if a.Year != b.Year {
				return a.Year < b.Year
			}
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := filters.offset()
	if start > total {
		start = total
	}
	end := start + filters.limit()
	if end > total {
		end = total
	}

	return matched[start:end], calculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (m *MockMovieModel) Update(movie *Movie) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	current, ok := m.store.movies[movie.ID]
	if !ok || current.UserID != movie.UserID || current.Version != movie.Version {
		return ErrEditConflict
	}

	movie.Version = current.Version + 1
	stored := copyMovie(movie)
	stored.CreatedAt = current.CreatedAt
	m.store.movies[movie.ID] = stored
	return nil
}

func (m *MockMovieModel) Delete(id, userID int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	movie, ok := m.store.movies[id]
	if !ok || movie.UserID != userID {
		return ErrRecordNotFound
	}
	delete(m.store.movies, id)
	return nil
}

// MockUserModel is an in-memory stand-in for UserModel.
type MockUserModel struct {
	store *mockStore
}

func (m *MockUserModel) Insert(user *User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, existing := range m.store.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}

	m.store.nextUserID++
	user.ID = m.store.nextUserID
	user.CreatedAt = time.Now()
	user.Version = 1

	m.store.users[user.ID] = copyUser(user)
	return nil
}

func (m *MockUserModel) GetByEmail(email string) (*User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, user := range m.store.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MockUserModel) GetForToken(tokenScope, tokenPlaintext string) (*User, error) {
	hash := sha256.Sum256([]byte(tokenPlaintext))

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	token, ok := m.store.tokens[string(hash[:])]
	if !ok || token.Scope != tokenScope || token.Expiry.Before(time.Now()) {
		return nil, ErrRecordNotFound
	}

	user, ok := m.store.users[token.UserID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return copyUser(user), nil
}

func (m *MockUserModel) Update(user *User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	current, ok := m.store.users[user.ID]
	if !ok || current.Version != user.Version {
		return ErrEditConflict
	}

	for id, existing := range m.store.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}

	user.Version = current.Version + 1
	stored := copyUser(user)
	stored.CreatedAt = current.CreatedAt
	m.store.users[user.ID] = stored
	return nil
}

func (m *MockUserModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.users[id]; !ok {
		return ErrRecordNotFound
	}
	delete(m.store.users, id)

	// Mirror the ON DELETE CASCADE behavior of the real schema.
	for hash, token := range m.store.tokens {
		if token.UserID == id {
			delete(m.store.tokens, hash)
		}
	}
	for movieID, movie := range m.store.movies {
		if movie.UserID == id {
			delete(m.store.movies, movieID)
		}
	}
	return nil
}

// MockTokenModel is an in-memory stand-in for TokenModel.
type MockTokenModel struct {
	store *mockStore
}

func (m *MockTokenModel) New(userID int64, ttl time.Duration, scope string) (*Token, error) {
	token, err := generateToken(userID, ttl, scope)
	if err != nil {
		return nil, err
	}

	err = m.Insert(token)
	return token, err
}

func (m *MockTokenModel) Insert(token *Token) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	clone := *token
	m.store.tokens[string(token.Hash)] = &clone
	return nil
}

func (m *MockTokenModel) DeleteAllForUser(scope string, userID int64) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for hash, token := range m.store.tokens {
		if token.Scope == scope && token.UserID == userID {
			delete(m.store.tokens, hash)
		}
	}
	return nil
}
