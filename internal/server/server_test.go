package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tkarrer/deckhand/pkg/fetch"
	"github.com/tkarrer/deckhand/pkg/store"
	"github.com/tkarrer/deckhand/pkg/update"
)

func newTestServer(t *testing.T, checker *update.Checker) *Server {
	t.Helper()
	return New(store.NewMemoryStore(), nil, checker, log.New(io.Discard))
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/version", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/version = %d", rec.Code)
	}
	var v map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("version body: %v", err)
	}
	if v["version"] == "" {
		t.Error("version missing from response")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	body := `[{"type":"clock","x":0,"y":0,"w":2,"h":1},{"type":"notes","x":2,"y":0,"w":2,"h":2,"title":"errands"}]`

	rec := doRequest(t, s, http.MethodPut, "/api/layouts/default", body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/layouts/default", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}

	var widgets []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &widgets); err != nil {
		t.Fatalf("layout body: %v", err)
	}
	if len(widgets) != 2 {
		t.Fatalf("got %d widgets, want 2", len(widgets))
	}
	if widgets[1]["title"] != "errands" {
		t.Errorf("extra field lost: %v", widgets[1])
	}
}

func TestLayoutPut_RejectsInvalid(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid widget", `[{"type":"","x":0,"y":0,"w":1,"h":1}]`, http.StatusUnprocessableEntity},
		{"not an array", `{"layout":[]}`, http.StatusUnprocessableEntity},
		{"malformed JSON", `[`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPut, "/api/layouts/default", tt.body)
			if rec.Code != tt.want {
				t.Errorf("PUT = %d, want %d", rec.Code, tt.want)
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error envelope: %v", err)
			}
			if body.Error.Code == "" {
				t.Error("error code missing from envelope")
			}
		})
	}
}

func TestLayoutGet_MissingIs404(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/layouts/absent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET = %d, want 404", rec.Code)
	}
}

func TestLayoutDelete_ThenGet404(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPut, "/api/layouts/default", `[{"type":"clock","x":0,"y":0,"w":1,"h":1}]`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/layouts/default", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}

	// Deleting again stays 204: reset of a missing key is a no-op.
	rec = doRequest(t, s, http.MethodDelete, "/api/layouts/default", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("second DELETE = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/layouts/default", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestSettingsFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap["language"] != "en" {
		t.Errorf("default language = %v", snap["language"])
	}

	rec = doRequest(t, s, http.MethodPatch, "/api/settings", `{"language":"de","refresh_seconds":"120"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap["language"] != "de" || snap["refresh_seconds"] != float64(120) {
		t.Errorf("patched snapshot = %v", snap)
	}

	// Unknown field rejects the whole patch.
	rec = doRequest(t, s, http.MethodPatch, "/api/settings", `{"volume":"11"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("PATCH unknown field = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/settings", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/settings", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap["language"] != "en" {
		t.Errorf("language after reset = %v, want default", snap["language"])
	}
}

func TestThemeRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/theme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}

	var body struct {
		Name    string                     `json:"name"`
		Widgets map[string]json.RawMessage `json:"widgets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "default" {
		t.Errorf("theme name = %q", body.Name)
	}
	if _, ok := body.Widgets["clock"]; !ok {
		t.Error("clock entry missing from theme table")
	}
}

func TestUpdateCheckJob(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v2.0.0"}`)
	}))
	defer feed.Close()

	checker, err := update.NewChecker(feed.URL,
		update.WithClient(fetch.NewClient(nil, nil)),
		update.WithCurrentVersion("v1.0.0"),
	)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, checker)

	rec := doRequest(t, s, http.MethodPost, "/api/update/checks", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST = %d", rec.Code)
	}
	var started map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}
	id := started["id"]
	if id == "" {
		t.Fatal("no job id returned")
	}

	// Poll until the job reaches a terminal state.
	deadline := time.Now().Add(5 * time.Second)
	var status update.Status
	for {
		rec = doRequest(t, s, http.MethodGet, "/api/update/checks/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET status = %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if status.State.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never finished, last state %s", status.State)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status.State != update.StateAvailable {
		t.Errorf("final state = %s, want available", status.State)
	}
	if status.Release == nil || status.Release.Version != "v2.0.0" {
		t.Errorf("release = %+v", status.Release)
	}
}

func TestUpdateCheck_UnknownJob(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/update/checks/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET = %d, want 404", rec.Code)
	}
}

func TestUpdateCheck_NoCheckerConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/update/checks", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST = %d, want 503", rec.Code)
	}
}
