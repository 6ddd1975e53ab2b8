// Package server exposes releasehub over HTTP.
//
// Routes:
//
//	GET  /healthz                                   cache mode and event counters
//	GET  /api/packages                              discovered packages per repository
//	GET  /api/packages/categorized                  packages grouped by category
//	GET  /api/releases?package=NAME                 merged releases ("all" for every package)
//	GET  /api/items/{kind}/{owner}/{repo}/{number}  issue, pull request or discussion ("any" detects)
//	GET  /api/repos/{owner}/{repo}/{kind}           recent issues, pulls or discussions
//	GET  /api/members/{owner}                       public organization members
//	GET  /api/tracker/{owner}/{repo}                member work board
//	GET  /rss.xml?package=NAME                      RSS 2.0 feed
//	GET  /rss.json?package=NAME                     JSON Feed
//	POST /api/github/webhooks                       GitHub release events
//	GET  /api/webhooks/packages                     package names known to the replicator hook
//	POST /api/webhooks/packages                     npm replicator change events
//	GET  /cron                                      refresh every repository
//
// Outside development mode, repository-scoped routes only serve
// repositories of the registry.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/releasehub/internal/app"
	"github.com/matzehuels/releasehub/internal/refresh"
)

// maxBodyBytes bounds webhook payloads.
const maxBodyBytes = 5 << 20

// Server serves the HTTP surface of an App.
type Server struct {
	app       *app.App
	refresher *refresh.Refresher
	logger    *log.Logger
	router    chi.Router
}

// New creates a Server. A nil refresher disables the cron endpoint.
func New(a *app.App, refresher *refresh.Refresher) *Server {
	s := &Server{app: a, refresher: refresher, logger: a.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/packages", s.packages)
		r.Get("/packages/categorized", s.categorized)
		r.Get("/releases", s.releases)
		r.Get("/items/{kind}/{owner}/{repo}/{number}", s.item)
		r.Get("/repos/{owner}/{repo}/{kind}", s.repoItems)
		r.Get("/members/{owner}", s.members)
		r.Get("/tracker/{owner}/{repo}", s.tracker)

		r.Post("/github/webhooks", s.githubWebhook)
		r.Get("/webhooks/packages", s.replicatorPackages)
		r.Post("/webhooks/packages", s.replicatorEvent)
	})

	r.Get("/rss.xml", s.rssXML)
	r.Get("/rss.json", s.rssJSON)
	r.Get("/cron", s.cron)
	return r
}

// logRequests logs every request at debug level and failures at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Warn("http request", kv...)
			return
		}
		s.logger.Debug("http request", kv...)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "cache", s.app.Cache.Mode())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return ctx.Err()
}
