package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KamilDonda/MovieRecommender/internal/data"
	"github.com/KamilDonda/MovieRecommender/internal/poster"
)

// showMoviePosterHandler serves the movie's poster image through the caching
// proxy, so clients fetch posters from the API with their bearer token
// instead of hitting arbitrary third-party hosts directly.
func (app *application) showMoviePosterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	movie, err := app.models.Movies.Get(id, app.contextGetUser(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if movie.PosterURL == "" {
		app.notFoundResponse(w, r)
		return
	}

	image, err := app.posters.Fetch(r.Context(), movie.PosterURL)
	if err != nil {
		switch {
		case errors.Is(err, poster.ErrUpstream),
			errors.Is(err, poster.ErrNotImage),
			errors.Is(err, poster.ErrTooLarge):
			app.upstreamErrorResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if image.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	w.Write(image.Data)
}
