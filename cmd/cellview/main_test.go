package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/crystalview/internal/monitoring"
	"github.com/banshee-data/crystalview/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// setFlags points the command flags at test values and restores them after.
func setFlags(t *testing.T, cif, cfg, sc, out, cat string, ls bool) {
	t.Helper()
	old := []string{*cifPath, *configPath, *supercell, *outPath, *serve, *catalogPath}
	oldList := *list
	*cifPath, *configPath, *supercell, *outPath, *serve, *catalogPath = cif, cfg, sc, out, "", cat
	*list = ls
	t.Cleanup(func() {
		*cifPath, *configPath, *supercell, *outPath, *serve, *catalogPath = old[0], old[1], old[2], old[3], old[4], old[5]
		*list = oldList
	})
}

func TestFlagDefaults(t *testing.T) {
	if *cifPath != "testdata/nacl.cif" {
		t.Errorf("expected default -cif testdata/nacl.cif, got %q", *cifPath)
	}
	if *serve != "" || *outPath != "" || *catalogPath != "" || *list {
		t.Error("expected serve, out, catalog and list to be off by default")
	}
}

func TestRunWritesFigure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nacl.svg")
	setFlags(t, testutil.TestdataPath(t, "nacl.cif"), "", "2x2x1", out, "", false)

	var stdout bytes.Buffer
	if err := run(context.Background(), &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := stdout.String()
	for _, want := range []string{"Halite", "atoms", "1 x Cl4Na4", "wrote " + out} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read figure: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("figure is not an SVG document")
	}
}

func TestRunCataloguesAndLists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	setFlags(t, testutil.TestdataPath(t, "water_p21c.cif"), "", "", "", db, false)

	var stdout bytes.Buffer
	if err := run(context.Background(), &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "catalogued as ") {
		t.Errorf("expected catalogue id in output:\n%s", stdout.String())
	}

	setFlags(t, "", "", "", "", db, true)
	stdout.Reset()
	if err := run(context.Background(), &stdout); err != nil {
		t.Fatalf("run -list: %v", err)
	}
	if !strings.Contains(stdout.String(), "model water") {
		t.Errorf("expected listed structure name:\n%s", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	testdata := filepath.Join(testutil.RepoRoot(t), "testdata")
	tests := []struct {
		name string
		cif  string
		sc   string
		cat  string
		out  string
		list bool
	}{
		{name: "missing file", cif: filepath.Join(testdata, "missing.cif")},
		{name: "degenerate lattice", cif: filepath.Join(testdata, "degenerate.cif")},
		{name: "bad supercell", cif: filepath.Join(testdata, "nacl.cif"), sc: "0,1,1"},
		{name: "list without catalog", list: true},
		{name: "output outside allowed dirs", cif: filepath.Join(testdata, "nacl.cif"), out: "/etc/nacl.png"},
		{name: "unsupported output format", cif: filepath.Join(testdata, "nacl.cif"), out: "nacl.gif"},
		{name: "overflowing supercell", cif: filepath.Join(testdata, "nacl.cif"), sc: "4294967296,4294967296,1", out: "nacl.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFlags(t, tt.cif, "", tt.sc, tt.out, tt.cat, tt.list)
			if err := run(context.Background(), &bytes.Buffer{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
