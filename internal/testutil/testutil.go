// Package testutil holds fixtures and HTTP helpers shared by package tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/crystalview/internal/cif"
)

// RepoRoot walks up from the working directory to the directory holding
// go.mod.
func RepoRoot(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above working directory")
		}
		dir = parent
	}
}

// TestdataPath returns the path of a shared CIF fixture.
func TestdataPath(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "testdata", name)
}

// LoadStructure loads a shared CIF fixture, failing the test on error.
func LoadStructure(t testing.TB, name string) *cif.Structure {
	t.Helper()
	s, err := cif.Load(TestdataPath(t, name))
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return s
}

// Serve runs one request through h and returns the recorded response.
func Serve(t testing.TB, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// AssertStatusCode checks that the response status code matches want.
func AssertStatusCode(t testing.TB, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Errorf("status code = %d, want %d (body %q)", w.Code, want, w.Body.String())
	}
}
