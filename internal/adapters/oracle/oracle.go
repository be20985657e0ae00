// Package oracle loads pre-trained credit risk models and exposes them as
// scoring oracles. Two artifact kinds are supported: a YAML logistic model
// evaluated in process and an ONNX model run through onnxruntime.
package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"gopkg.in/yaml.v3"
)

// Artifact kinds.
const (
	KindLinear = "linear"
	KindONNX   = "onnx"
)

// Artifact is a loaded model. It is immutable and safe for concurrent use
// until Close is called.
type Artifact interface {
	scoring.Oracle
	Kind() string
	Version() string
	Close() error
}

// Options selects and locates a model artifact.
type Options struct {
	Kind         string
	Path         string
	ContractPath string

	// ONNX only.
	LibraryPath       string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
}

// Load reads the artifact described by opts.
func Load(ctx context.Context, opts Options) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(opts.Path, "cancelled", err)
	}
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindLinear:
		return LoadLinear(opts.Path)
	case KindONNX:
		return LoadONNX(opts)
	default:
		return nil, loadErr(opts.Path, "select adapter", fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind))
	}
}

// contractFile is the feature contract sidecar shipped next to ONNX models.
type contractFile struct {
	Version      string   `yaml:"version"`
	FeatureNames []string `yaml:"feature_names"`
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return loadErr(path, "read", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return loadErr(path, "parse", err)
	}
	return nil
}

// checkNames validates a feature contract read from an artifact.
func checkNames(path string, names []string) error {
	if len(names) == 0 {
		return loadErr(path, "feature contract", features.ErrInvalidContract)
	}
	if _, err := features.NewContract(names); err != nil {
		return loadErr(path, "feature contract", err)
	}
	return nil
}

func copyNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
