package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearEnv(t, "OCR_PROFILE", "TMP_PATH", "CONFIDENCE_THRESHOLD", "USE_AGGRESSIVE_STRATEGY")

	cfg, err := LoadAPI()
	require.NoError(t, err)
	assert.Equal(t, os.TempDir(), cfg.TmpPath)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.False(t, cfg.UseAggressiveStrategy)
}

func TestLoadAPIEnvOverridesDefaults(t *testing.T) {
	clearEnv(t, "OCR_PROFILE", "TMP_PATH", "CONFIDENCE_THRESHOLD", "USE_AGGRESSIVE_STRATEGY", "S3_INPUT_BUCKET")
	os.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	os.Setenv("USE_AGGRESSIVE_STRATEGY", "true")
	os.Setenv("S3_INPUT_BUCKET", "my-bucket")

	cfg, err := LoadAPI()
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.ConfidenceThreshold)
	assert.True(t, cfg.UseAggressiveStrategy)
	assert.Equal(t, "my-bucket", cfg.S3InputBucket)
}

func TestLoadAPIEnvOverridesYAMLProfile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	require.NoError(t, os.WriteFile("config.test.yaml", []byte("confidence_threshold: 0.9\n"), 0o644))

	clearEnv(t, "TMP_PATH", "USE_AGGRESSIVE_STRATEGY")
	os.Setenv("OCR_PROFILE", "test")
	t.Cleanup(func() { os.Unsetenv("OCR_PROFILE") })
	os.Setenv("CONFIDENCE_THRESHOLD", "0.3")
	t.Cleanup(func() { os.Unsetenv("CONFIDENCE_THRESHOLD") })

	cfg, err := LoadAPI()
	require.NoError(t, err)
	// Env wins over the file, which wins over the default.
	assert.Equal(t, 0.3, cfg.ConfidenceThreshold)
}

func TestLoadScriptDefaultsToPathTypes(t *testing.T) {
	clearEnv(t, "OCR_PROFILE", "INPUT_TYPE", "OUTPUT_TYPE")

	cfg, err := LoadScript()
	require.NoError(t, err)
	assert.Equal(t, "path", cfg.InputType)
	assert.Equal(t, "path", cfg.OutputType)
}

func TestLoadScriptMissingProfileFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	clearEnv(t, "OCR_PROFILE")
	os.Setenv("OCR_PROFILE", "does-not-exist")
	t.Cleanup(func() { os.Unsetenv("OCR_PROFILE") })

	_, err = LoadScript()
	assert.NoError(t, err)
}
