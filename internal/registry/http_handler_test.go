package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cets-data/cets-schema/internal/archive"
	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
	"github.com/cets-data/cets-schema/internal/repository"
)

const draftSchema = `name: cets
description: Cryo-electron tomography metadata standard.
entities:
  - name: Tomogram
    fields:
      - name: id
        type: string
        required: true
      - name: pixel_size
        type: float
`

const draftSchemaWithCTF = `name: cets
description: Cryo-electron tomography metadata standard.
entities:
  - name: CTFMetadata
    fields:
      - name: id
        type: string
        required: true
  - name: Tomogram
    fields:
      - name: id
        type: string
        required: true
      - name: pixel_size
        type: float
`

func newTestHandler(t *testing.T) (http.Handler, *archive.Service) {
	t.Helper()
	repo := repository.NewFSSchemaVersionRepository(filepath.Join(t.TempDir(), "versions"))
	service := archive.NewService(repo, archive.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	return NewHTTPHandler(service), service
}

func publishDraft(t *testing.T, service *archive.Service, source string, class domain.ChangeClass, changelog string) {
	t.Helper()
	doc, err := loader.Parse([]byte(source))
	if err != nil {
		t.Fatalf("failed to parse draft: %v", err)
	}
	if _, err := service.Publish(context.Background(), doc, class, changelog); err != nil {
		t.Fatalf("failed to publish draft: %v", err)
	}
}

func TestHandleList_EmptyArchive(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Versions []json.RawMessage `json:"versions"`
		Latest   string            `json:"latest"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(body.Versions) != 0 || body.Latest != "" {
		t.Errorf("expected empty listing, got %s", rec.Body.String())
	}
}

func TestHandleListAndGet(t *testing.T) {
	handler, service := newTestHandler(t)
	publishDraft(t, service, draftSchema, domain.ChangeClassMinor, "Initial release.")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"latest": "1.0.0"`) {
		t.Errorf("list should name 1.0.0 as latest: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions/1.0.0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Version   string                `json:"version"`
		Changelog string                `json:"changelog"`
		Document  domain.SchemaDocument `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if payload.Version != "1.0.0" || payload.Changelog != "Initial release." {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if len(payload.Document.Entities) != 1 || payload.Document.Entities[0].Name != "Tomogram" {
		t.Errorf("unexpected document: %+v", payload.Document)
	}
}

func TestHandleGet_Latest(t *testing.T) {
	handler, service := newTestHandler(t)
	publishDraft(t, service, draftSchema, domain.ChangeClassMinor, "Initial release.")
	publishDraft(t, service, draftSchemaWithCTF, domain.ChangeClassMinor, "Add CTFMetadata.")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"version": "1.1.0"`) {
		t.Errorf("expected latest 1.1.0: %s", rec.Body.String())
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	handler, service := newTestHandler(t)
	publishDraft(t, service, draftSchema, domain.ChangeClassMinor, "Initial release.")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions/9.9.9", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSchemaAndChangelog(t *testing.T) {
	handler, service := newTestHandler(t)
	publishDraft(t, service, draftSchema, domain.ChangeClassMinor, "Initial release.")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions/1.0.0/schema", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("schema: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "name: Tomogram") {
		t.Errorf("schema body missing entity: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/versions/1.0.0/changelog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("changelog: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Initial release." {
		t.Errorf("unexpected changelog body %q", rec.Body.String())
	}
}

func TestHandleDiff(t *testing.T) {
	handler, service := newTestHandler(t)
	publishDraft(t, service, draftSchema, domain.ChangeClassMinor, "Initial release.")
	publishDraft(t, service, draftSchemaWithCTF, domain.ChangeClassMinor, "Add CTFMetadata.")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diff?from=1.0.0&to=1.1.0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Classification string   `json:"classification"`
		Changes        []string `json:"changes"`
		UnifiedDiff    string   `json:"unifiedDiff"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if payload.Classification != "minor" {
		t.Errorf("expected minor classification, got %q", payload.Classification)
	}
	if len(payload.Changes) == 0 || payload.UnifiedDiff == "" {
		t.Errorf("expected enumerated changes and text diff: %+v", payload)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diff?from=1.0.0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing to, got %d", rec.Code)
	}
}

func TestHandlePublish(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(map[string]string{
		"schema":    draftSchema,
		"changelog": "Initial release.",
		"class":     "minor",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/versions", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"version": "1.0.0"`) {
		t.Errorf("expected published version in body: %s", rec.Body.String())
	}

	// Identical draft again: nothing changed.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/versions", bytes.NewReader(body)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for no changes, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePublish_BadPayload(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/versions", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
