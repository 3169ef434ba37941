// Package config loads pipeline settings: an optional on-disk YAML profile
// layered under environment variables, which always win. Grounded on
// original_source/utils/settings.py's SharedSettings/ApiSettings/
// ScriptSettings, and on the defaults-then-file-overlay shape of
// alefaraci-GoSNare's config.go (this corpus's other env/file-config
// example), per SPEC_FULL.md's AMBIENT STACK.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Shared holds settings common to both the HTTP front-end and the one-shot
// CLI, mirroring SharedSettings.
type Shared struct {
	TmpPath              string  `yaml:"tmp_path"`
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	UseAggressiveStrategy bool   `yaml:"use_aggressive_strategy"`
}

// API holds the HTTP front-end's additional settings, mirroring
// ApiSettings. Object-store fields are carried as plain configuration
// values for a future backend (see store package) rather than wired to any
// SDK, since none is present in this corpus's dependency surface.
type API struct {
	Shared           `yaml:",inline"`
	SkipProcessing   bool   `yaml:"skip_processing"`
	S3InputEndpoint  string `yaml:"s3_input_endpoint"`
	S3InputBucket    string `yaml:"s3_input_bucket"`
	S3InputFolder    string `yaml:"s3_input_folder"`
	S3OutputEndpoint string `yaml:"s3_output_endpoint"`
	S3OutputBucket   string `yaml:"s3_output_bucket"`
	S3OutputFolder   string `yaml:"s3_output_folder"`
}

// Script holds the one-shot batch CLI's settings, mirroring ScriptSettings.
type Script struct {
	Shared            `yaml:",inline"`
	CleanupTmpFiles   bool   `yaml:"cleanup_tmp_files"`
	InputType         string `yaml:"input_type"` // "path" or "s3"
	InputPath         string `yaml:"input_path"`
	InputSkipExisting bool   `yaml:"input_skip_existing"`
	InputDebugPage    int    `yaml:"input_debug_page"` // 0 = unset
	OutputType        string `yaml:"output_type"`      // "path" or "s3"
	OutputPath        string `yaml:"output_path"`
}

func defaultShared() Shared {
	return Shared{
		TmpPath:             os.TempDir(),
		ConfidenceThreshold: 0.5,
	}
}

// loadYAMLProfile decodes the YAML file named by the OCR_PROFILE env var
// (as ".env.$OCR_PROFILE"-equivalent; here "config.$OCR_PROFILE.yaml") into
// dst, if OCR_PROFILE is set and the file exists. A missing file is not an
// error: env vars alone are a complete configuration.
func loadYAMLProfile(dst any) error {
	profile := os.Getenv("OCR_PROFILE")
	if profile == "" {
		return nil
	}
	path := "config." + profile + ".yaml"
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read config profile %q", path)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "parse config profile %q", path)
	}
	return nil
}

func applySharedEnv(s *Shared) {
	if v, ok := os.LookupEnv("TMP_PATH"); ok {
		s.TmpPath = v
	}
	if v, ok := os.LookupEnv("CONFIDENCE_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.ConfidenceThreshold = f
		}
	}
	if v, ok := os.LookupEnv("USE_AGGRESSIVE_STRATEGY"); ok {
		s.UseAggressiveStrategy = v == "true" || v == "1"
	}
}

// LoadAPI builds API settings: defaults, then the optional YAML profile,
// then environment variables (highest precedence).
func LoadAPI() (*API, error) {
	cfg := &API{Shared: defaultShared()}
	if err := loadYAMLProfile(cfg); err != nil {
		return nil, err
	}
	applySharedEnv(&cfg.Shared)

	if v, ok := os.LookupEnv("SKIP_PROCESSING"); ok {
		cfg.SkipProcessing = v == "true" || v == "1"
	}
	if v, ok := os.LookupEnv("S3_INPUT_ENDPOINT"); ok {
		cfg.S3InputEndpoint = v
	}
	if v, ok := os.LookupEnv("S3_INPUT_BUCKET"); ok {
		cfg.S3InputBucket = v
	}
	if v, ok := os.LookupEnv("S3_INPUT_FOLDER"); ok {
		cfg.S3InputFolder = v
	}
	if v, ok := os.LookupEnv("S3_OUTPUT_ENDPOINT"); ok {
		cfg.S3OutputEndpoint = v
	}
	if v, ok := os.LookupEnv("S3_OUTPUT_BUCKET"); ok {
		cfg.S3OutputBucket = v
	}
	if v, ok := os.LookupEnv("S3_OUTPUT_FOLDER"); ok {
		cfg.S3OutputFolder = v
	}
	return cfg, nil
}

// LoadScript builds Script settings the same way as LoadAPI.
func LoadScript() (*Script, error) {
	cfg := &Script{Shared: defaultShared(), InputType: "path", OutputType: "path"}
	if err := loadYAMLProfile(cfg); err != nil {
		return nil, err
	}
	applySharedEnv(&cfg.Shared)

	if v, ok := os.LookupEnv("CLEANUP_TMP_FILES"); ok {
		cfg.CleanupTmpFiles = v == "true" || v == "1"
	}
	if v, ok := os.LookupEnv("INPUT_TYPE"); ok {
		cfg.InputType = v
	}
	if v, ok := os.LookupEnv("INPUT_PATH"); ok {
		cfg.InputPath = v
	}
	if v, ok := os.LookupEnv("INPUT_SKIP_EXISTING"); ok {
		cfg.InputSkipExisting = v == "true" || v == "1"
	}
	if v, ok := os.LookupEnv("INPUT_DEBUG_PAGE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InputDebugPage = n
		}
	}
	if v, ok := os.LookupEnv("OUTPUT_TYPE"); ok {
		cfg.OutputType = v
	}
	if v, ok := os.LookupEnv("OUTPUT_PATH"); ok {
		cfg.OutputPath = v
	}
	return cfg, nil
}
