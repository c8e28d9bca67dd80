package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/imglocate/internal/engine"
)

const validConfig = `
[imglocate]
weights = /models/yolov3.weights
config = /models/yolov3.cfg
labels = /models/coco.names
confidence_threshold = 0.5
nms_threshold = 0.4
`

func TestLoadBytes(t *testing.T) {
	c, err := LoadBytes([]byte(validConfig))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}

	want := &Config{
		Weights:             "/models/yolov3.weights",
		NetConfig:           "/models/yolov3.cfg",
		Labels:              "/models/coco.names",
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.4,
		Backend:             engine.BackendDarknet,
		InputSize:           engine.DefaultInputSize,
		Scale:               engine.DefaultScale,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOptionalKeys(t *testing.T) {
	data := validConfig + `backend = onnx
input_size = 320
scale = 0.5
input_name = data
output_rows = 6300
`
	c, err := LoadBytes([]byte(data))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if c.Backend != engine.BackendONNX || c.InputSize != 320 || c.Scale != 0.5 {
		t.Errorf("unexpected optional values: %+v", c)
	}

	opts := c.EngineOptions(80)
	if opts.NumClasses != 80 || opts.InputName != "data" || opts.OutputRows != 6300 || opts.Config != "/models/yolov3.cfg" {
		t.Errorf("unexpected engine options: %+v", opts)
	}
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
	_, err := LoadBytes([]byte("[imglocate]\nweights = w\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"config", "labels", "confidence_threshold", "nms_threshold"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no section", "[other]\nweights = w\n"},
		{"threshold out of range", strings.Replace(validConfig, "0.4", "1.5", 1)},
		{"threshold not a number", strings.Replace(validConfig, "0.5", "half", 1)},
		{"unknown backend", validConfig + "backend = tflite\n"},
		{"bad input size", validConfig + "input_size = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadBytes([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imglocaterc")
	if err := os.WriteFile(path, []byte(validConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Labels != "/models/coco.names" {
		t.Errorf("expected labels path, got %s", c.Labels)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/models/x.cfg", filepath.Join(home, "models/x.cfg")},
		{"/abs/path", "/abs/path"},
		{"~user/path", "~user/path"},
		{"rel/path", "rel/path"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := DefaultPath(); got != "~/.imglocaterc" {
		t.Errorf("DefaultPath() = %q", got)
	}

	t.Setenv(EnvPath, "/etc/imglocate.ini")
	if got := DefaultPath(); got != "/etc/imglocate.ini" {
		t.Errorf("DefaultPath() = %q", got)
	}
}
