package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORKFEAT_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load reads configuration with defaults, the YAML file, and FORKFEAT_*
// environment variables, in increasing order of precedence.
//
// An empty path means DefaultFileName in the working directory, which may
// be absent. A path given explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	return load(path, explicit)
}

func load(path string, mustExist bool) (*Config, error) {
	k := koanf.New(".")

	content, err := readConfigFile(path, mustExist)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, &InvalidConfigError{
				Path:    path,
				Message: fmt.Sprintf("YAML parse error: %v", err),
				Hint:    "Run 'forkfeat config init --force' to regenerate a valid file",
			}
		}
	}

	// FORKFEAT_WINDOWS_FORK_END -> windows.fork_end
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Check value types against 'forkfeat config init' output",
		}
	}

	if err := cfg.Validate(); err != nil {
		source := "file"
		if content == nil {
			path, source = "", "defaults"
		}
		if len(envOverrides()) > 0 {
			source += " and environment"
		}
		return nil, located(err, path, source, "")
	}

	return cfg, nil
}

// envOverrides lists the FORKFEAT_* variables set in the environment.
func envOverrides() []string {
	var names []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix) {
			name, _, _ := strings.Cut(kv, "=")
			names = append(names, name)
		}
	}
	return names
}

// envKey maps FORKFEAT_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + field
}

// readConfigFile returns nil content for an optional file that does not exist.
func readConfigFile(path string, mustExist bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			if !mustExist {
				return nil, nil
			}
			return nil, &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'forkfeat config init' to create configuration",
			}
		case os.IsPermission(err):
			return nil, &PermissionError{
				Path:    path,
				Op:      OpRead,
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		default:
			return nil, fmt.Errorf("failed to access config: %w", err)
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, &InvalidConfigError{Path: path, Message: "path is a directory"}
	}
	if info.Size() > maxConfigFileSize {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize),
		}
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return content, nil
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
