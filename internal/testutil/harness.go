package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/graphfile"
	"github.com/vk/pipegrid/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles creates a temporary directory holding files, keyed by relative
// path, and returns its root.
func WriteFiles(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// MLPGraphYAML returns the fixture graph in its file format.
func MLPGraphYAML(t testing.TB) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, graphfile.Encode(context.Background(), &buf, MLPGraph(t)))
	return buf.String()
}

// HarnessResult holds the outcomes of an app run.
type HarnessResult struct {
	LogOutput string
	Err       error
	// Dir is the temporary root the files were written to.
	Dir string
	// OutDir is the resolved output directory.
	OutDir string
}

// RunApp writes files to a temporary directory and runs the app on them.
// Relative paths in cfg are resolved against that directory; an empty
// OutDir becomes "out".
func RunApp(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	dir := WriteFiles(t, files)

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	cfg.GraphPath = resolve(cfg.GraphPath)
	specs := make([]string, len(cfg.SpecPaths))
	for i, p := range cfg.SpecPaths {
		specs[i] = resolve(p)
	}
	cfg.SpecPaths = specs
	if cfg.OutDir == "" {
		cfg.OutDir = "out"
	}
	cfg.OutDir = resolve(cfg.OutDir)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	logBuffer := &SafeBuffer{}
	res := &HarnessResult{Dir: dir, OutDir: cfg.OutDir}

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		res.Err = err
		return res
	}
	res.Err = app.NewApp(logBuffer, appConfig, hcl.NewLoader()).Run(ctx)
	res.LogOutput = logBuffer.String()

	if os.Getenv("PIPEGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
	}
	return res
}
