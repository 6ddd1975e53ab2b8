package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/releasehub/pkg/discovery"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
)

// replicatorChangeEvent is the only replicator event acted upon.
const replicatorChangeEvent = "changestream_updated"

type replicatorEvent struct {
	Event   string `json:"event"`
	Package struct {
		Name string `json:"name"`
	} `json:"package"`
}

type webhookResponse struct {
	Delivery    string `json:"delivery"`
	Repository  string `json:"repository,omitempty"`
	Invalidated bool   `json:"invalidated"`
}

func (s *Server) githubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read payload"))
		return
	}
	if !github.VerifySignature(s.app.Config.Webhooks.Secret, payload, r.Header.Get(github.SignatureHeader)) {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeUnauthorized, "signature does not match"))
		return
	}

	delivery := r.Header.Get(github.DeliveryHeader)
	if delivery == "" {
		delivery = uuid.NewString()
	}
	logger := s.logger.With("delivery", delivery)

	event := r.Header.Get(github.EventHeader)
	if event != "release" {
		logger.Debug("webhook ignored", "event", event)
		writeJSON(w, http.StatusOK, webhookResponse{Delivery: delivery})
		return
	}

	var ev github.ReleaseEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid release event"))
		return
	}
	resp := webhookResponse{Delivery: delivery, Repository: ev.Repository.Owner.Login + "/" + ev.Repository.Name}
	if !ev.InvalidatesReleases() {
		logger.Debug("webhook ignored", "event", event, "action", ev.Action)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	logger.Info("release webhook, invalidating", "repo", resp.Repository, "action", ev.Action)
	resp.Invalidated = s.app.Source.InvalidateReleases(r.Context(), ev.Repository.Owner.Login, ev.Repository.Name)
	if !resp.Invalidated {
		logger.Warn("nothing to invalidate", "repo", resp.Repository)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) replicatorPackages(w http.ResponseWriter, r *http.Request) {
	names, err := s.app.Discoverer.PackageNames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) replicatorEvent(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, token, _ := strings.Cut(auth, " ")
	if token == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	expected := s.app.Config.Webhooks.ReplicatorToken
	if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var ev replicatorEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if ev.Event != replicatorChangeEvent {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	found, err := s.app.Discoverer.GetOrDiscover(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	owner, name, ok := publisherOf(found, ev.Package.Name)
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	s.logger.Info("replicator webhook, invalidating", "package", ev.Package.Name, "repo", owner+"/"+name)
	if !s.app.Source.InvalidateReleases(r.Context(), owner, name) {
		s.logger.Warn("nothing to invalidate", "repo", owner+"/"+name)
	}
	w.WriteHeader(http.StatusOK)
}

// publisherOf finds the first repository publishing exactly pkg.
func publisherOf(found []discovery.DiscoveredPackage, pkg string) (string, string, bool) {
	for _, dp := range found {
		for _, p := range dp.Packages {
			if p.Name == pkg {
				return dp.Repository.Owner, dp.Repository.Name, true
			}
		}
	}
	return "", "", false
}

func (s *Server) cron(w http.ResponseWriter, r *http.Request) {
	secret := s.app.Config.Webhooks.CronSecret
	got := r.Header.Get("Authorization")
	if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+secret)) != 1 {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid cron credentials"))
		return
	}
	if s.refresher == nil {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeUnsupported, "refresh is disabled"))
		return
	}

	rep, err := s.refresher.RefreshAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
