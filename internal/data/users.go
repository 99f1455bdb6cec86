package data

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// ErrDuplicateEmail is returned by Insert when the email address is already
// registered. Email uniqueness is enforced by the database, not by a lookup,
// so two racing registrations can't both succeed.
var ErrDuplicateEmail = errors.New("duplicate email")

// AnonymousUser represents a request that carried no (valid) authentication
// token. Handlers compare against this sentinel rather than against nil.
var AnonymousUser = &User{}

// User is a registered account. The password is only ever held as a bcrypt
// hash; the plaintext side of the password struct exists so validation can
// run against what the client actually sent.
type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	Version   int       `json:"-"`
}

// IsAnonymous reports whether the user is the AnonymousUser sentinel.
func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// password keeps the plaintext (when known) and the bcrypt hash together.
// The plaintext pointer distinguishes "not provided" from "empty string".
type password struct {
	plaintext *string
	hash      []byte
}

// Set calculates the bcrypt hash of the plaintext password and stores both.
func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash

	return nil
}

// Matches checks whether the plaintext password matches the stored hash.
// A mismatch is a normal outcome, not an error; anything else bcrypt reports
// is passed up.
func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

// ValidateEmail records a problem when the email is missing or malformed.
func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

// ValidatePasswordPlaintext records a problem when the password is missing or
// outside the accepted length bounds. The 72-byte ceiling is bcrypt's input
// limit; anything longer would be silently truncated when hashed.
func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// ValidateUser runs the full validation set for a user record.
func ValidateUser(v *validator.Validator, user *User) {
	ValidateEmail(v, user.Email)

	if user.Password.plaintext != nil {
		ValidatePasswordPlaintext(v, *user.Password.plaintext)
	}

	// A missing hash here is a logic error in the application (the handler
	// forgot to call Set), never a client problem, so fail loudly.
	if user.Password.hash == nil {
		panic("missing password hash for user")
	}
}

// UserModel wraps a sql.DB connection pool and persists user accounts.
type UserModel struct {
	DB *sql.DB
}

// Insert stores a new user and fills in the store-assigned fields. The email
// column is citext with a unique index, so duplicates surface here as
// ErrDuplicateEmail regardless of letter case.
func (m UserModel) Insert(user *User) error {
	query := `
        INSERT INTO users (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at, version`

	args := []interface{}{user.Email, user.Password.hash}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.Version)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "users_email_key"`:
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

// GetByEmail retrieves the user registered under the given email address.
func (m UserModel) GetByEmail(email string) (*User, error) {
	query := `
        SELECT id, created_at, email, password_hash, version
        FROM users
        WHERE email = $1`

	var user User

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Email,
		&user.Password.hash,
		&user.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &user, nil
}

// Update writes the user's email and password hash back to the store,
// guarded by the version check for the same reason movie overwrites are.
func (m UserModel) Update(user *User) error {
	query := `
        UPDATE users
        SET email = $1, password_hash = $2, version = version + 1
        WHERE id = $3 AND version = $4
        RETURNING version`

	args := []interface{}{
		user.Email,
		user.Password.hash,
		user.ID,
		user.Version,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&user.Version)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "users_email_key"`:
			return ErrDuplicateEmail
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

// Delete removes the user account. Tokens, movies, and movie attributes all
// hang off the users table with ON DELETE CASCADE, so one statement tears
// down everything the account owns.
func (m UserModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	query := `
        DELETE FROM users
        WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// GetForToken retrieves the user that owns an unexpired token with the given
// scope. The client-supplied plaintext is hashed here and compared against
// the stored hash, so raw tokens never touch the database.
func (m UserModel) GetForToken(tokenScope, tokenPlaintext string) (*User, error) {
	tokenHash := sha256.Sum256([]byte(tokenPlaintext))

	query := `
        SELECT users.id, users.created_at, users.email, users.password_hash, users.version
        FROM users
        INNER JOIN tokens
        ON users.id = tokens.user_id
        WHERE tokens.hash = $1
        AND tokens.scope = $2
        AND tokens.expiry > $3`

	args := []interface{}{tokenHash[:], tokenScope, time.Now()}

	var user User

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Email,
		&user.Password.hash,
		&user.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &user, nil
}
