package data

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/lib/pq"

	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// Movie is a single entry in a user's personal movie list. The only required
// domain field is the title; everything else is optional and validated only
// when present. UserID scopes the record to its owner and is never exposed
// in responses, and Version increments on every overwrite so that concurrent
// edits of the same record can be detected.
type Movie struct {
	ID         int64            `json:"id"`
	CreatedAt  time.Time        `json:"-"`
	UserID     int64            `json:"-"`
	Title      string           `json:"title"`
	Director   string           `json:"director,omitempty"`
	Genre      string           `json:"genre,omitempty"`
	Year       int32            `json:"year,omitempty"`
	PosterURL  string           `json:"poster_url,omitempty"`
	Attributes []MovieAttribute `json:"attributes,omitempty"`
	Version    int32            `json:"version"`
}

// ValidateMovie records any validation problems with the movie in v. Note
// that a missing title is the only hard requirement; the remaining checks
// guard the optional fields against nonsense values.
func ValidateMovie(v *validator.Validator, movie *Movie) {
	v.Check(movie.Title != "", "title", "must be provided")
	v.Check(len(movie.Title) <= 500, "title", "must not be more than 500 bytes long")

	v.Check(len(movie.Director) <= 500, "director", "must not be more than 500 bytes long")
	v.Check(len(movie.Genre) <= 100, "genre", "must not be more than 100 bytes long")

	if movie.Year != 0 {
		v.Check(movie.Year >= 1888, "year", "must be greater than 1888")
		v.Check(movie.Year <= int32(time.Now().Year()+1), "year", "must not be more than a year in the future")
	}

	if movie.PosterURL != "" {
		u, err := url.Parse(movie.PosterURL)
		ok := err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		v.Check(ok, "poster_url", "must be an absolute http or https URL")
	}

	ValidateAttributes(v, movie.Attributes)
}

// MovieModel wraps a sql.DB connection pool and persists movies together
// with their attributes.
type MovieModel struct {
	DB *sql.DB
}

// Insert stores a new movie and its attributes in a single transaction and
// fills in the store-assigned fields (ID, CreatedAt, Version) on the struct.
func (m MovieModel) Insert(movie *Movie) error {
	query := `
        INSERT INTO movies (user_id, title, director, genre, year, poster_url)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, version`

	args := []interface{}{movie.UserID, movie.Title, movie.Director, movie.Genre, movie.Year, movie.PosterURL}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, query, args...).Scan(&movie.ID, &movie.CreatedAt, &movie.Version)
	if err != nil {
		return err
	}

	if err := insertAttributes(ctx, tx, movie.ID, movie.Attributes); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves the movie with the given ID, provided it belongs to userID.
// A movie owned by somebody else is indistinguishable from a missing one.
func (m MovieModel) Get(id, userID int64) (*Movie, error) {
	// Sequence IDs start at 1, so anything below that can be rejected
	// without a round trip to the database.
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
        SELECT id, created_at, user_id, title, director, genre, year, poster_url, version
        FROM movies
        WHERE id = $1 AND user_id = $2`

	var movie Movie

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&movie.ID,
		&movie.CreatedAt,
		&movie.UserID,
		&movie.Title,
		&movie.Director,
		&movie.Genre,
		&movie.Year,
		&movie.PosterURL,
		&movie.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	attributes, err := m.attributesFor(ctx, []int64{movie.ID})
	if err != nil {
		return nil, err
	}
	movie.Attributes = attributes[movie.ID]

	return &movie, nil
}

// Update overwrites the full movie record, attributes included. The WHERE
// clause checks the version the caller read, so an overwrite racing with
// another one fails with ErrEditConflict instead of silently losing data.
func (m MovieModel) Update(movie *Movie) error {
	query := `
        UPDATE movies
        SET title = $1, director = $2, genre = $3, year = $4, poster_url = $5, version = version + 1
        WHERE id = $6 AND user_id = $7 AND version = $8
        RETURNING version`

	args := []interface{}{
		movie.Title,
		movie.Director,
		movie.Genre,
		movie.Year,
		movie.PosterURL,
		movie.ID,
		movie.UserID,
		movie.Version,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, query, args...).Scan(&movie.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	// Full-record overwrite: attributes are replaced wholesale rather than
	// merged, so the stored set always mirrors the request exactly.
	_, err = tx.ExecContext(ctx, `DELETE FROM movie_attributes WHERE movie_id = $1`, movie.ID)
	if err != nil {
		return err
	}

	if err := insertAttributes(ctx, tx, movie.ID, movie.Attributes); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the movie with the given ID if it belongs to userID. The
// movie_attributes rows go with it via ON DELETE CASCADE.
func (m MovieModel) Delete(id, userID int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	query := `
        DELETE FROM movies
        WHERE id = $1 AND user_id = $2`

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id, userID)
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

// GetAll returns a page of userID's movies, optionally narrowed by a
// full-text title search and an exact (case-insensitive) genre match,
// along with pagination metadata for the full result set.
func (m MovieModel) GetAll(title, genre string, userID int64, filters Filters) ([]*Movie, Metadata, error) {
	// The window function gives us the total number of matching rows in the
	// same query that fetches the page, saving a separate COUNT round trip.
	query := `
        SELECT count(*) OVER(), id, created_at, user_id, title, director, genre, year, poster_url, version
        FROM movies
        WHERE (to_tsvector('simple', title) @@ plainto_tsquery('simple', $1) OR $1 = '')
        AND (LOWER(genre) = LOWER($2) OR $2 = '')
        AND user_id = $3
        ORDER BY ` + filters.sortColumn() + ` ` + filters.sortDirection() + `, id ASC
        LIMIT $4 OFFSET $5`

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	args := []interface{}{title, genre, userID, filters.limit(), filters.offset()}

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*Movie{}
	ids := []int64{}

	for rows.Next() {
		var movie Movie

		err := rows.Scan(
			&totalRecords,
			&movie.ID,
			&movie.CreatedAt,
			&movie.UserID,
			&movie.Title,
			&movie.Director,
			&movie.Genre,
			&movie.Year,
			&movie.PosterURL,
			&movie.Version,
		)
		if err != nil {
			return nil, Metadata{}, err
		}

		movies = append(movies, &movie)
		ids = append(ids, movie.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	// Fetch the attributes for the whole page in one query rather than one
	// query per movie.
	attributes, err := m.attributesFor(ctx, ids)
	if err != nil {
		return nil, Metadata{}, err
	}
	for _, movie := range movies {
		movie.Attributes = attributes[movie.ID]
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)

	return movies, metadata, nil
}

// attributesFor loads the attributes for the given movie IDs, grouped by
// movie ID and sorted by name so responses are stable.
func (m MovieModel) attributesFor(ctx context.Context, ids []int64) (map[int64][]MovieAttribute, error) {
	grouped := make(map[int64][]MovieAttribute, len(ids))
	if len(ids) == 0 {
		return grouped, nil
	}

	query := `
        SELECT movie_id, name, score
        FROM movie_attributes
        WHERE movie_id = ANY($1)
        ORDER BY movie_id, name`

	rows, err := m.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var movieID int64
		var attribute MovieAttribute

		if err := rows.Scan(&movieID, &attribute.Name, &attribute.Score); err != nil {
			return nil, err
		}
		grouped[movieID] = append(grouped[movieID], attribute)
	}

	return grouped, rows.Err()
}

// insertAttributes bulk-inserts the attribute rows for a movie inside an
// existing transaction. unnest() keeps it to one statement regardless of how
// many attributes the movie carries.
func insertAttributes(ctx context.Context, tx *sql.Tx, movieID int64, attributes []MovieAttribute) error {
	if len(attributes) == 0 {
		return nil
	}

	names := make([]string, len(attributes))
	scores := make([]float64, len(attributes))
	for i, attribute := range attributes {
		names[i] = attribute.Name
		scores[i] = attribute.Score
	}

	query := `
        INSERT INTO movie_attributes (movie_id, name, score)
        SELECT $1, unnest($2::text[]), unnest($3::double precision[])`

	_, err := tx.ExecContext(ctx, query, movieID, pq.Array(names), pq.Array(scores))
	return err
}
