package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JETMOCK_"

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load builds the configuration: defaults, then the file at path when path
// is not empty, then environment overrides. The result is validated.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()
	if path != "" {
		if err := LoadDocument(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDocument reads a YAML or JSON file into v. The format follows the file
// extension (.yaml and .yml are YAML, anything else JSON). Environment
// references are expanded before decoding.
func LoadDocument(path string, v any) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	data = []byte(ExpandEnvVars(string(data)))

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with JETMOCK_* variables read through lookup.
func ApplyEnv(cfg *ServerConfig, lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Field: EnvPrefix + name, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		*dst = n
		return nil
	}

	str("HOST", &cfg.Host)
	str("DATA_PATH", &cfg.DataPath)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("KAFKA_CONSUMER_GROUP", &cfg.Kafka.ConsumerGroup)
	str("KAFKA_CLIENT_ID", &cfg.Kafka.ClientID)

	for name, dst := range map[string]*int{
		"MOCK_PORT":        &cfg.MockPort,
		"ADMIN_PORT":       &cfg.AdminPort,
		"WORKERS":          &cfg.Workers,
		"READ_TIMEOUT":     &cfg.ReadTimeout,
		"WRITE_TIMEOUT":    &cfg.WriteTimeout,
		"REQUEST_LOG_SIZE": &cfg.RequestLogSize,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	return nil
}
