package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateWithin(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "figures")
	elsewhere := filepath.Join(tmpDir, "elsewhere")
	for _, d := range []string{safeDir, elsewhere} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	link := filepath.Join(safeDir, "link")
	if err := os.Symlink(elsewhere, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"new file", filepath.Join(safeDir, "nacl.png"), false},
		{"new nested file", filepath.Join(safeDir, "a", "b", "nacl.svg"), false},
		{"dir itself", safeDir, false},
		{"dot dot", filepath.Join(safeDir, "..", "nacl.png"), true},
		{"relative escape", "../../../etc/passwd", true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlinked dir", filepath.Join(link, "nacl.png"), true},
		{"symlink itself", link, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithin(tt.path, safeDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWithin(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && tt.wantErr && !errors.Is(err, ErrOutsideAllowed) && !strings.Contains(err.Error(), "resolve") {
				t.Errorf("expected ErrOutsideAllowed, got %v", err)
			}
		})
	}
}

func TestValidateWithinMissingDir(t *testing.T) {
	err := ValidateWithin("x.png", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for a missing base directory")
	}
}

func TestValidateOutputPath(t *testing.T) {
	if err := ValidateOutputPath(filepath.Join(t.TempDir(), "cell.png")); err != nil {
		t.Errorf("temp dir path rejected: %v", err)
	}
	if err := ValidateOutputPath("cell.png"); err != nil {
		t.Errorf("working dir path rejected: %v", err)
	}
	if err := ValidateOutputPath("/etc/cell.png"); !errors.Is(err, ErrOutsideAllowed) {
		t.Errorf("expected ErrOutsideAllowed for /etc, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Halite", "Halite"},
		{"model water", "model_water"},
		{"Fe2 O3 (hematite)", "Fe2_O3_hematite"},
		{"../../etc/passwd", "etc_passwd"},
		{"P 1 21/c 1", "P_1_21_c_1"},
		{"__x__", "x"},
		{"", "structure"},
		{"///", "structure"},
		{strings.Repeat("a", 200), strings.Repeat("a", maxFilenameLen)},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
