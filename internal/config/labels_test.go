package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLabels(t *testing.T) {
	got, err := ParseLabels(strings.NewReader("person\n  bicycle \ntraffic\tlight\n"))
	if err != nil {
		t.Fatalf("ParseLabels failed: %v", err)
	}
	want := []string{"person", "bicycle", "traffic light"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLabelsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank line", "person\n\ncar\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLabels(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coco.names")
	if err := os.WriteFile(path, []byte("person\r\ncar\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadLabels(path)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}
	if diff := cmp.Diff([]string{"person", "car"}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadLabels(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
