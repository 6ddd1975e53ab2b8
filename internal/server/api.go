package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/releasehub/pkg/cache"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/feed"
	"github.com/matzehuels/releasehub/pkg/merge"
	"github.com/matzehuels/releasehub/pkg/observability"
	"github.com/matzehuels/releasehub/pkg/releases"
)

type healthResponse struct {
	Status       string                 `json:"status"`
	Cache        string                 `json:"cache"`
	Repositories int                    `json:"repositories"`
	Counters     observability.Snapshot `json:"counters"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Cache:        s.app.Cache.Mode().String(),
		Repositories: s.app.Registry.Len(),
		Counters:     s.app.Counters.Snapshot(),
	})
}

func (s *Server) packages(w http.ResponseWriter, r *http.Request) {
	found, err := s.app.Discoverer.GetOrDiscover(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) categorized(w http.ResponseWriter, r *http.Request) {
	found, err := s.app.Discoverer.GetOrDiscoverCategorized(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// packageParam returns the validated ?package= value.
func packageParam(r *http.Request) (string, error) {
	name := strings.TrimSpace(r.URL.Query().Get("package"))
	if err := apperrors.ValidatePackageName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Server) releases(w http.ResponseWriter, r *http.Request) {
	name, err := packageParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.app.Discoverer.GetOrDiscover(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if strings.EqualFold(name, feed.AllPackages) {
		all, err := s.app.Merge.AllPackagesReleases(r.Context(), found)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
		return
	}

	pr, err := s.app.Merge.PackageReleases(r.Context(), name, found)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// repoParams validates {owner}/{repo} and, outside development mode,
// restricts them to the registry.
func (s *Server) repoParams(r *http.Request) (string, string, error) {
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	if err := apperrors.ValidateRepoRef(owner, repo); err != nil {
		return "", "", err
	}
	if s.app.Cache.Mode() != cache.ModeDevelopment && !s.app.Registry.Contains(owner, repo) {
		return "", "", apperrors.New(apperrors.ErrCodeForbidden, "%s/%s is not a tracked repository", owner, repo)
	}
	return owner, repo, nil
}

func (s *Server) item(w http.ResponseWriter, r *http.Request) {
	owner, repo, err := s.repoParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	number, err := apperrors.ValidateItemNumber(chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var details *releases.ItemDetails
	if k := chi.URLParam(r, "kind"); k == "any" {
		details, err = s.app.Source.FindItem(r.Context(), owner, repo, number)
	} else {
		kind, ok := releases.ParseItemKind(k)
		if !ok {
			s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidItem, "unknown item kind %q", k))
			return
		}
		details, err = s.app.Source.GetItemDetails(r.Context(), owner, repo, kind, number)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) repoItems(w http.ResponseWriter, r *http.Request) {
	owner, repo, err := s.repoParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var items any
	switch kind := chi.URLParam(r, "kind"); kind {
	case cache.KindIssues:
		items, err = s.app.Source.ListIssues(r.Context(), owner, repo)
	case cache.KindPulls, "pulls":
		items, err = s.app.Source.ListPulls(r.Context(), owner, repo)
	case cache.KindDiscussions:
		items, err = s.app.Source.ListDiscussions(r.Context(), owner, repo)
	default:
		err = apperrors.New(apperrors.ErrCodeInvalidInput, "unknown list %q; use issues, prs or discussions", kind)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) members(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := apperrors.ValidateRepoRef(owner, "-"); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Source.GetOrgMembers(r.Context(), owner))
}

func (s *Server) tracker(w http.ResponseWriter, r *http.Request) {
	owner, repo, err := s.repoParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	board, err := s.app.Tracker.Board(r.Context(), owner, repo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// feedReleases resolves the releases and display name behind a feed.
func (s *Server) feedReleases(r *http.Request) (string, []merge.Release, error) {
	name, err := packageParam(r)
	if err != nil {
		return "", nil, err
	}
	found, err := s.app.Discoverer.GetOrDiscover(r.Context())
	if err != nil {
		return "", nil, err
	}
	if strings.EqualFold(name, feed.AllPackages) {
		all, err := s.app.Merge.AllPackagesReleases(r.Context(), found)
		return feed.AllPackages, all, err
	}
	pr, err := s.app.Merge.PackageReleases(r.Context(), name, found)
	if err != nil {
		return "", nil, err
	}
	return pr.ReleasesRepo.Package.Name, pr.Releases, nil
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (s *Server) rssXML(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, "application/rss+xml; charset=utf-8", (*feed.Feed).RSS)
}

func (s *Server) rssJSON(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, "application/json", (*feed.Feed).JSON)
}

func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request, contentType string, encode func(*feed.Feed) ([]byte, error)) {
	name, list, err := s.feedReleases(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := encode(feed.New(requestURL(r), name, list))
	if err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode feed"))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "max-age=0, s-maxage=600")
	_, _ = w.Write(data)
}
