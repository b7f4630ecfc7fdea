package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into an empty directory so no stray devprobe.yaml is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, AcceleratorAuto, cfg.Accelerator)
	assert.Empty(t, cfg.CUDA.RuntimeLibrary)
	assert.Zero(t, cfg.CUDA.Seed)
}

func TestLoad_Env(t *testing.T) {
	chdir(t)
	t.Setenv("DEVPROBE_LOG_LEVEL", "debug")
	t.Setenv("DEVPROBE_ACCELERATOR", "CUDA")
	t.Setenv("DEVPROBE_CUDA_RUNTIME_LIBRARY", "/opt/cuda/lib64/libcudart.so")
	t.Setenv("DEVPROBE_CUDA_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, AcceleratorCUDA, cfg.Accelerator)
	assert.Equal(t, "/opt/cuda/lib64/libcudart.so", cfg.CUDA.RuntimeLibrary)
	assert.Equal(t, uint64(42), cfg.CUDA.Seed)
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	yaml := "accelerator: none\nlog:\n  level: info\ncuda:\n  cublas_library: libcublas.so.12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devprobe.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AcceleratorNone, cfg.Accelerator)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "libcublas.so.12", cfg.CUDA.CublasLibrary)
}

func TestLoad_InvalidAccelerator(t *testing.T) {
	chdir(t)
	t.Setenv("DEVPROBE_ACCELERATOR", "tpu")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid accelerator")
}
