package resources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

type entry struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Encoding string `json:"encoding,omitempty"`
	Content  string `json:"content,omitempty"`
	Size     int    `json:"size,omitempty"`
}

func fileEntry(p, content string) entry {
	return entry{
		Type:     "file",
		Name:     filepath.Base(p),
		Path:     p,
		Encoding: "base64",
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Size:     len(content),
	}
}

func listing(entries ...entry) []entry {
	out := make([]entry, len(entries))
	for i, e := range entries {
		out[i] = entry{Type: e.Type, Name: e.Name, Path: e.Path}
	}
	return out
}

// fakeGitHub serves the contents API for a small resource tree.
func fakeGitHub(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	vocab := fileEntry("resources/vocabulary.json", `{"tl_predicates": []}`)
	goals := fileEntry("resources/goals.json", `{"scene_1": {}}`)
	scene := fileEntry("resources/scenes/scene_1/27_2.json", `{"nodes": [], "edges": []}`)
	sceneDir := entry{Type: "dir", Name: "scene_1", Path: "resources/scenes/scene_1"}
	scenesDir := entry{Type: "dir", Name: "scenes", Path: "resources/scenes"}

	routes := map[string]any{
		"/repos/vh/eval/contents/resources":                           listing(vocab, goals, scenesDir, entry{Type: "symlink", Name: "link", Path: "resources/link"}),
		"/repos/vh/eval/contents/resources/vocabulary.json":           vocab,
		"/repos/vh/eval/contents/resources/goals.json":                goals,
		"/repos/vh/eval/contents/resources/scenes":                    listing(sceneDir),
		"/repos/vh/eval/contents/resources/scenes/scene_1":            listing(scene),
		"/repos/vh/eval/contents/resources/scenes/scene_1/27_2.json": scene,
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want %q", got, wantAuth)
		}
		if ref := r.URL.Query().Get("ref"); ref != "v1" {
			t.Errorf("ref = %q, want v1", ref)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

func TestFetch(t *testing.T) {
	srv := fakeGitHub(t, "Bearer tok")
	defer srv.Close()

	f, err := NewFetcher("tok", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	written, err := f.Fetch(context.Background(), "vh/eval", "v1", "resources", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	sort.Strings(written)
	want := []string{
		filepath.Join(dest, "goals.json"),
		filepath.Join(dest, "scenes", "scene_1", "27_2.json"),
		filepath.Join(dest, "vocabulary.json"),
	}
	if len(written) != len(want) {
		t.Fatalf("written = %v, want %v", written, want)
	}
	for i := range want {
		if written[i] != want[i] {
			t.Errorf("written[%d] = %q, want %q", i, written[i], want[i])
		}
	}

	data, err := os.ReadFile(filepath.Join(dest, "scenes", "scene_1", "27_2.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"nodes": [], "edges": []}` {
		t.Errorf("scene content = %q", data)
	}
}

func TestFetchSingleFileWithoutToken(t *testing.T) {
	srv := fakeGitHub(t, "")
	defer srv.Close()

	f, err := NewFetcher("", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	written, err := f.Fetch(context.Background(), "vh/eval", "v1", "resources/vocabulary.json", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(written) != 1 || written[0] != filepath.Join(dest, "vocabulary.json") {
		t.Errorf("written = %v", written)
	}
}

func TestFetchErrors(t *testing.T) {
	srv := fakeGitHub(t, "")
	defer srv.Close()
	f, err := NewFetcher("", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.Fetch(context.Background(), "vh/eval", "v1", "missing", t.TempDir()); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := f.Fetch(context.Background(), "no-slash", "v1", "resources", t.TempDir()); err == nil {
		t.Error("expected error for bad repo")
	}
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		repo, owner, name string
		wantErr           bool
	}{
		{"cgast/sgeval", "cgast", "sgeval", false},
		{"just-a-name", "", "", true},
		{"/name", "", "", true},
		{"owner/", "", "", true},
	}
	for _, tt := range tests {
		owner, name, err := SplitRepo(tt.repo)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitRepo(%q) error = %v", tt.repo, err)
			continue
		}
		if owner != tt.owner || name != tt.name {
			t.Errorf("SplitRepo(%q) = %q, %q", tt.repo, owner, name)
		}
	}
}
