package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KamilDonda/MovieRecommender/internal/metrics"
)

func (app *application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		// Route the http.Server's internal error messages into zerolog so
		// nothing writes to stderr behind the structured logs' back.
		ErrorLog: stdlog.New(app.logger, "", 0),
	}

	var metricsSrv *http.Server
	if app.config.Metrics.Enabled {
		metricsSrv = metrics.NewHTTPServer(app.config.Metrics.Port)
		go func() {
			app.logger.Info().Str("addr", metricsSrv.Addr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				app.logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info().Str("signal", s.String()).Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Close the broadcaster first: it ends every open watch stream, and
		// Shutdown cannot complete while those responses are still being
		// written.
		app.broadcaster.Close()

		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(ctx); err != nil {
				app.logger.Error().Err(err).Msg("metrics server shutdown failed")
			}
		}

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.logger.Info().Msg("completing background tasks")
		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Info().
		Str("addr", srv.Addr).
		Str("env", app.config.Env).
		Msg("starting server")

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info().Str("addr", srv.Addr).Msg("stopped server")

	return nil
}
