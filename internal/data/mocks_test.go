package data

import (
	"errors"
	"testing"
	"time"
)

func TestMockMovies_OwnershipScoping(t *testing.T) {
	models := NewMockModels()

	movie := &Movie{UserID: 1, Title: "Solaris", Year: 1972}
	if err := models.Movies.Insert(movie); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if movie.ID == 0 || movie.Version != 1 {
		t.Fatalf("Insert did not assign store fields: %+v", movie)
	}

	if _, err := models.Movies.Get(movie.ID, 1); err != nil {
		t.Fatalf("owner Get: %v", err)
	}

	// Another user's lookups and deletes must behave like record-not-found.
	if _, err := models.Movies.Get(movie.ID, 2); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("foreign Get error = %v, want ErrRecordNotFound", err)
	}
	if err := models.Movies.Delete(movie.ID, 2); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("foreign Delete error = %v, want ErrRecordNotFound", err)
	}
}

func TestMockMovies_UpdateVersioning(t *testing.T) {
	models := NewMockModels()

	movie := &Movie{UserID: 1, Title: "Solaris"}
	if err := models.Movies.Insert(movie); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	movie.Title = "Solaris (1972)"
	if err := models.Movies.Update(movie); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if movie.Version != 2 {
		t.Fatalf("Version = %d, want 2", movie.Version)
	}

	stale := &Movie{ID: movie.ID, UserID: 1, Title: "Stale", Version: 1}
	if err := models.Movies.Update(stale); !errors.Is(err, ErrEditConflict) {
		t.Fatalf("stale Update error = %v, want ErrEditConflict", err)
	}
}

func TestMockMovies_GetAllFilterSortPage(t *testing.T) {
	models := NewMockModels()

	seed := []*Movie{
		{UserID: 1, Title: "Alien", Genre: "Horror", Year: 1979},
		{UserID: 1, Title: "Aliens", Genre: "Action", Year: 1986},
		{UserID: 1, Title: "Arrival", Genre: "Sci-Fi", Year: 2016},
		{UserID: 2, Title: "Alien 3", Genre: "Horror", Year: 1992},
	}
	for _, movie := range seed {
		if err := models.Movies.Insert(movie); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	filters := Filters{Page: 1, PageSize: 10, Sort: "-year", SortSafelist: []string{"-year"}}

	movies, metadata, err := models.Movies.GetAll("alien", "", 1, filters)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("got %d movies, want 2 (owner-scoped title match)", len(movies))
	}
	if movies[0].Title != "Aliens" || movies[1].Title != "Alien" {
		t.Fatalf("wrong sort order: %q, %q", movies[0].Title, movies[1].Title)
	}
	if metadata.TotalRecords != 2 {
		t.Fatalf("TotalRecords = %d, want 2", metadata.TotalRecords)
	}

	movies, _, err = models.Movies.GetAll("", "horror", 1, filters)
	if err != nil {
		t.Fatalf("GetAll by genre: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Alien" {
		t.Fatalf("genre filter returned %d movies, want just Alien", len(movies))
	}
}

func TestMockUsers_TokenRoundTrip(t *testing.T) {
	models := NewMockModels()

	user := &User{Email: "test@example.com"}
	if err := user.Password.Set("pa55word1234"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := models.Users.Insert(user); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dup := &User{Email: "TEST@example.com"}
	if err := dup.Password.Set("pa55word1234"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := models.Users.Insert(dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate Insert error = %v, want ErrDuplicateEmail", err)
	}

	token, err := models.Tokens.New(user.ID, time.Hour, ScopeAuthentication)
	if err != nil {
		t.Fatalf("Tokens.New: %v", err)
	}

	got, err := models.Users.GetForToken(ScopeAuthentication, token.Plaintext)
	if err != nil {
		t.Fatalf("GetForToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("GetForToken user = %d, want %d", got.ID, user.ID)
	}

	if err := models.Tokens.DeleteAllForUser(ScopeAuthentication, user.ID); err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	if _, err := models.Users.GetForToken(ScopeAuthentication, token.Plaintext); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("revoked token error = %v, want ErrRecordNotFound", err)
	}
}

func TestMockUsers_DeleteCascades(t *testing.T) {
	models := NewMockModels()

	user := &User{Email: "owner@example.com"}
	if err := user.Password.Set("pa55word1234"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := models.Users.Insert(user); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	movie := &Movie{UserID: user.ID, Title: "Heat"}
	if err := models.Movies.Insert(movie); err != nil {
		t.Fatalf("Insert movie: %v", err)
	}
	token, err := models.Tokens.New(user.ID, time.Hour, ScopeAuthentication)
	if err != nil {
		t.Fatalf("Tokens.New: %v", err)
	}

	if err := models.Users.Delete(user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := models.Movies.Get(movie.ID, user.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("movie survived account deletion: %v", err)
	}
	if _, err := models.Users.GetForToken(ScopeAuthentication, token.Plaintext); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("token survived account deletion: %v", err)
	}
}
