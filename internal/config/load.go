package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// FileEnvVar names an explicit config file, overriding the search by environment.
const FileEnvVar = "GRADERECO_CONFIG"

// searchDirs are tried in order for <env>.yaml.
var searchDirs = []string{"config", "/etc/gradereco"}

// Load reads the configuration for env. The file named by GRADERECO_CONFIG
// wins; otherwise <env>.yaml is looked up in searchDirs, and when none exists
// the embedded default is used so the binary runs on environment variables alone.
func Load(env string) (Config, error) {
	path, err := locate(env)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return Parse(defaultConfig, "default.yaml")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and validates.
func Parse(data []byte, source string) (Config, error) {
	data, err := expandEnvVars(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", source, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", source, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", source, err)
	}
	return cfg, nil
}

// GetEnv returns the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// locate returns the config file to read, or "" for the embedded default.
func locate(env string) (string, error) {
	if p := os.Getenv(FileEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", FileEnvVar, p, err)
		}
		return p, nil
	}
	name := env + ".yaml"
	for _, dir := range searchDirs {
		p := filepath.Join(dir, name)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// expandEnvVars substitutes ${VAR}, ${VAR:-default} and ${VAR:?message}.
// The last form fails when VAR is unset or empty.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string
	out := envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		name, op, arg := string(m[1]), string(m[2]), string(m[3])
		val := os.Getenv(name)
		if val != "" {
			return []byte(val)
		}
		switch op {
		case ":-":
			return []byte(arg)
		case ":?":
			missing = append(missing, name+": "+arg)
		}
		return nil
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, "; "))
	}
	return out, nil
}
