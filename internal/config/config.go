// Package config loads the imglocate INI configuration and the label table it
// points at.
//
// The file has a single [imglocate] section:
//
//	[imglocate]
//	weights = ~/models/yolov3.weights
//	config = ~/models/yolov3.cfg
//	labels = ~/models/coco.names
//	confidence_threshold = 0.5
//	nms_threshold = 0.4
//
// Optional keys select the inference backend and its preprocessing:
// backend (darknet or onnx), input_size, scale, onnx_library, input_name,
// output_name and output_rows.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/ini.v1"

	"github.com/ironsheep/imglocate/internal/engine"
)

// Section is the INI section holding every setting.
const Section = "imglocate"

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "IMGLOCATE_CONFIG"

// Config is the parsed configuration file.
type Config struct {
	Weights             string
	NetConfig           string
	Labels              string
	ConfidenceThreshold float64
	NMSThreshold        float64

	Backend   string
	InputSize int
	Scale     float64

	ONNXLibrary string
	InputName   string
	OutputName  string
	OutputRows  int
}

// DefaultPath returns $IMGLOCATE_CONFIG if set, otherwise ~/.imglocaterc.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return "~/.imglocaterc"
}

// Load reads and validates the configuration at path. Every missing or
// invalid key is reported, not just the first.
func Load(path string) (*Config, error) {
	path = ExpandHome(path)
	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return parse(f)
}

// LoadBytes parses configuration from memory.
func LoadBytes(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return parse(f)
}

func parse(f *ini.File) (*Config, error) {
	sec, err := f.GetSection(Section)
	if err != nil {
		return nil, errors.Errorf("missing [%s] section", Section)
	}

	var errs error
	required := func(key string) string {
		v := strings.TrimSpace(sec.Key(key).String())
		if v == "" {
			errs = multierr.Append(errs, errors.Errorf("missing configuration option %s", key))
		}
		return v
	}
	threshold := func(key string) float64 {
		if required(key) == "" {
			return 0
		}
		v, err := sec.Key(key).Float64()
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "option %s", key))
			return 0
		}
		if v < 0 || v > 1 {
			errs = multierr.Append(errs, errors.Errorf("option %s must be in [0,1], got %v", key, v))
		}
		return v
	}

	c := &Config{
		Weights:             ExpandHome(required("weights")),
		NetConfig:           ExpandHome(required("config")),
		Labels:              ExpandHome(required("labels")),
		ConfidenceThreshold: threshold("confidence_threshold"),
		NMSThreshold:        threshold("nms_threshold"),

		Backend:   sec.Key("backend").MustString(engine.BackendDarknet),
		InputSize: sec.Key("input_size").MustInt(engine.DefaultInputSize),
		Scale:     sec.Key("scale").MustFloat64(engine.DefaultScale),

		ONNXLibrary: ExpandHome(sec.Key("onnx_library").String()),
		InputName:   sec.Key("input_name").String(),
		OutputName:  sec.Key("output_name").String(),
		OutputRows:  sec.Key("output_rows").MustInt(0),
	}

	switch c.Backend {
	case engine.BackendDarknet, engine.BackendONNX:
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown backend %q", c.Backend))
	}
	if c.InputSize <= 0 {
		errs = multierr.Append(errs, errors.Errorf("input_size must be positive, got %d", c.InputSize))
	}
	if c.Scale <= 0 {
		errs = multierr.Append(errs, errors.Errorf("scale must be positive, got %v", c.Scale))
	}

	if errs != nil {
		return nil, errs
	}
	return c, nil
}

// EngineOptions maps the configuration onto engine.Options for a label table
// of numClasses entries.
func (c *Config) EngineOptions(numClasses int) engine.Options {
	return engine.Options{
		Backend:     c.Backend,
		Weights:     c.Weights,
		Config:      c.NetConfig,
		NumClasses:  numClasses,
		InputSize:   c.InputSize,
		Scale:       float32(c.Scale),
		ONNXLibrary: c.ONNXLibrary,
		InputName:   c.InputName,
		OutputName:  c.OutputName,
		OutputRows:  c.OutputRows,
	}
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// String renders the configuration for debug logging.
func (c *Config) String() string {
	return fmt.Sprintf("backend=%s weights=%s config=%s labels=%s confidence=%v nms=%v",
		c.Backend, c.Weights, c.NetConfig, c.Labels, c.ConfidenceThreshold, c.NMSThreshold)
}
