// Package registry exposes the schema archive over HTTP for tooling that
// consumes published versions: pipelines resolving a pinned version, docs
// sites, and the publish workflow itself.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cets-data/cets-schema/internal/archive"
	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/repository"
)

type Handler struct {
	service *archive.Service
}

func NewHTTPHandler(service *archive.Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/diff"):
		h.handleDiff(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/schema"):
		h.handleSchema(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/changelog"):
		h.handleChangelog(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/versions"):
		h.handleList(w, r)
		return
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/versions/"):
		h.handleGet(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/versions"):
		h.handlePublish(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

type versionSummary struct {
	Version     string `json:"version"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type versionPayload struct {
	Version     string                `json:"version"`
	PublishedAt string                `json:"publishedAt,omitempty"`
	Changelog   string                `json:"changelog"`
	Document    domain.SchemaDocument `json:"document"`
}

type diffPayload struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	Classification string   `json:"classification,omitempty"`
	Changes        []string `json:"changes"`
	UnifiedDiff    string   `json:"unifiedDiff"`
}

type publishPayload struct {
	Schema    string `json:"schema"`
	Changelog string `json:"changelog"`
	Class     string `json:"class"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	latest, err := h.service.Latest(r.Context())
	if errors.Is(err, repository.ErrEmptyArchive) {
		writeJSON(w, http.StatusOK, map[string]any{"versions": []versionSummary{}})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	names, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summaries := make([]versionSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, versionSummary{Version: name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": summaries,
		"latest":   latest.Version,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	version, ok := versionFromPath(w, r.URL.Path, "")
	if !ok {
		return
	}

	sv, err := h.lookup(w, r, version)
	if err != nil {
		return
	}

	payload := versionPayload{
		Version:   sv.Version,
		Changelog: sv.Changelog,
		Document:  sv.Document,
	}
	if !sv.PublishedAt.IsZero() {
		payload.PublishedAt = sv.PublishedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	version, ok := versionFromPath(w, r.URL.Path, "/schema")
	if !ok {
		return
	}

	sv, err := h.lookup(w, r, version)
	if err != nil {
		return
	}

	data, err := loader.Marshal(sv.Document)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleChangelog(w http.ResponseWriter, r *http.Request) {
	version, ok := versionFromPath(w, r.URL.Path, "/changelog")
	if !ok {
		return
	}

	sv, err := h.lookup(w, r, version)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, sv.Changelog)
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "missing from or to version", http.StatusBadRequest)
		return
	}

	diff, text, err := h.service.Diff(r.Context(), from, to)
	if errors.Is(err, repository.ErrVersionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := diffPayload{
		From:        from,
		To:          to,
		Changes:     diff.Summary(),
		UnifiedDiff: text,
	}
	if !diff.Empty() {
		payload.Classification = string(diff.Classify())
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload publishPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	draft, err := loader.Parse([]byte(payload.Schema))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sv, err := h.service.Publish(r.Context(), draft, domain.ChangeClass(payload.Class), payload.Changelog)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrVersionExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, archive.ErrNoChanges),
		errors.Is(err, archive.ErrEmptyChangelog),
		errors.Is(err, archive.ErrBumpMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, versionSummary{
		Version:     sv.Version,
		PublishedAt: sv.PublishedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, version string) (domain.SchemaVersion, error) {
	var (
		sv  domain.SchemaVersion
		err error
	)
	if version == "latest" {
		sv, err = h.service.Latest(r.Context())
	} else {
		sv, err = h.service.Get(r.Context(), version)
	}
	switch {
	case err == nil:
		return sv, nil
	case errors.Is(err, repository.ErrVersionNotFound), errors.Is(err, repository.ErrEmptyArchive):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	return domain.SchemaVersion{}, err
}

func versionFromPath(w http.ResponseWriter, path, suffix string) (string, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, "/"), suffix)
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 || idx == len(trimmed)-1 {
		http.Error(w, "missing version identifier", http.StatusBadRequest)
		return "", false
	}
	return trimmed[idx+1:], true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
