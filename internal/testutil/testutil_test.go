package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestRepoRoot(t *testing.T) {
	root := RepoRoot(t)
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Fatalf("RepoRoot() = %q has no go.mod: %v", root, err)
	}
}

func TestLoadStructure(t *testing.T) {
	s := LoadStructure(t, "nacl.cif")
	if s.Name != "Halite" {
		t.Errorf("Name = %q, want Halite", s.Name)
	}
	if got := len(s.Atoms); got != 8 {
		t.Errorf("len(Atoms) = %d, want 8", got)
	}
}

func TestServe(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(r.URL.Query().Get("q")))
	})

	w := Serve(t, h, http.MethodPost, "/things?q=hello")
	AssertStatusCode(t, w, http.StatusCreated)
	if got := w.Body.String(); got != "hello" {
		t.Errorf("body = %q, want hello", got)
	}
	AssertStatusCode(t, Serve(t, h, http.MethodGet, "/things"), http.StatusMethodNotAllowed)
}
