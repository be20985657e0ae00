package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX runs a binary classifier exported with a float input and separate
// label and probability outputs. Inference is serialized over preallocated
// tensors.
type ONNX struct {
	version string
	names   []string

	session       *ort.AdvancedSession
	input         *ort.Tensor[float32]
	label         *ort.Tensor[int64]
	probabilities *ort.Tensor[float32]

	mu     sync.Mutex
	closed bool
}

// LoadONNX initializes onnxruntime, reads the contract sidecar and creates
// the session.
func LoadONNX(opts Options) (*ONNX, error) {
	if opts.Path == "" {
		return nil, loadErr(opts.Path, "model path", errors.New("empty"))
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, loadErr(opts.Path, "model file missing", err)
	}

	contractPath := opts.ContractPath
	if contractPath == "" {
		contractPath = strings.TrimSuffix(opts.Path, filepath.Ext(opts.Path)) + ".contract.yaml"
	}
	var c contractFile
	if err := readYAML(contractPath, &c); err != nil {
		return nil, err
	}
	if err := checkNames(contractPath, c.FeatureNames); err != nil {
		return nil, err
	}

	libPath := resolveSharedLibraryPath(opts.LibraryPath, filepath.Dir(opts.Path))
	if libPath == "" {
		return nil, loadErr(opts.Path, "onnxruntime shared library not found; set onnx_library_path or ONNXRUNTIME_SHARED_LIBRARY_PATH", nil)
	}
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, loadErr(opts.Path, "initialize onnxruntime", err)
		}
	}

	inputName := orDefault(opts.InputName, "float_input")
	labelName := orDefault(opts.LabelOutput, "label")
	probName := orDefault(opts.ProbabilityOutput, "probabilities")

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(c.FeatureNames))))
	if err != nil {
		return nil, loadErr(opts.Path, "allocate input tensor", err)
	}
	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		_ = input.Destroy()
		return nil, loadErr(opts.Path, "allocate label tensor", err)
	}
	probs, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		_ = input.Destroy()
		_ = label.Destroy()
		return nil, loadErr(opts.Path, "allocate probability tensor", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.Path,
		[]string{inputName},
		[]string{labelName, probName},
		[]ort.Value{input},
		[]ort.Value{label, probs},
		nil,
	)
	if err != nil {
		_ = input.Destroy()
		_ = label.Destroy()
		_ = probs.Destroy()
		return nil, loadErr(opts.Path, "create onnx session", err)
	}

	return &ONNX{
		version:       c.Version,
		names:         copyNames(c.FeatureNames),
		session:       session,
		input:         input,
		label:         label,
		probabilities: probs,
	}, nil
}

// Kind implements Artifact.
func (m *ONNX) Kind() string { return KindONNX }

// Version implements Artifact.
func (m *ONNX) Version() string { return m.version }

// FeatureNames implements scoring.Oracle.
func (m *ONNX) FeatureNames() []string { return copyNames(m.names) }

// run executes one inference and returns the label and P(class 1).
func (m *ONNX) run(ctx context.Context, x []float64) (int, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if len(x) != len(m.names) {
		return 0, 0, fmt.Errorf("%w: got %d, want %d", ErrInput, len(x), len(m.names))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, 0, ErrClosed
	}

	in := m.input.GetData()
	for i, v := range x {
		in[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return 0, 0, fmt.Errorf("onnx run: %w", err)
	}
	return int(m.label.GetData()[0]), float64(m.probabilities.GetData()[1]), nil
}

// Predict implements scoring.Oracle.
func (m *ONNX) Predict(ctx context.Context, x []float64) (int, error) {
	label, _, err := m.run(ctx, x)
	return label, err
}

// PredictProbability implements scoring.Oracle.
func (m *ONNX) PredictProbability(ctx context.Context, x []float64) (float64, error) {
	_, p, err := m.run(ctx, x)
	return p, err
}

// Close releases the session and tensors.
func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return errors.Join(
		m.session.Destroy(),
		m.input.Destroy(),
		m.label.Destroy(),
		m.probabilities.Destroy(),
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// resolveSharedLibraryPath locates the onnxruntime shared library. An
// explicit path wins, then ONNXRUNTIME_SHARED_LIBRARY_PATH, then common
// names next to the model and in system locations.
func resolveSharedLibraryPath(explicit, modelDir string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
