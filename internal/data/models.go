package data

import (
	"database/sql"
	"errors"
	"time"
)

// Sentinel errors shared by all models. ErrRecordNotFound doubles as the
// "not yours" signal: lookups are owner-scoped, so a record belonging to a
// different user is reported exactly like a missing one.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")
)

// Models gathers the data-access layer behind small interfaces so that
// handlers depend on behavior, not on the SQL implementations. The mock
// constructor below swaps in-memory fakes underneath the same struct for
// handler tests.
type Models struct {
	Movies interface {
		Insert(movie *Movie) error
		Get(id, userID int64) (*Movie, error)
		GetAll(title, genre string, userID int64, filters Filters) ([]*Movie, Metadata, error)
		Update(movie *Movie) error
		Delete(id, userID int64) error
	}
	Users interface {
		Insert(user *User) error
		GetByEmail(email string) (*User, error)
		GetForToken(tokenScope, tokenPlaintext string) (*User, error)
		Update(user *User) error
		Delete(id int64) error
	}
	Tokens interface {
		New(userID int64, ttl time.Duration, scope string) (*Token, error)
		Insert(token *Token) error
		DeleteAllForUser(scope string, userID int64) error
	}
}

// NewModels returns a Models struct backed by the given connection pool.
func NewModels(db *sql.DB) Models {
	return Models{
		Movies: MovieModel{DB: db},
		Users:  UserModel{DB: db},
		Tokens: TokenModel{DB: db},
	}
}

// NewMockModels returns a Models struct backed by in-memory fakes that share
// one store, so tokens minted through Tokens authenticate against Users.
func NewMockModels() Models {
	store := newMockStore()
	return Models{
		Movies: &MockMovieModel{store: store},
		Users:  &MockUserModel{store: store},
		Tokens: &MockTokenModel{store: store},
	}
}
