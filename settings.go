package hydroconf

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// Settings configures the resolver itself. Fields left empty are read from
// the *_FOR_HYDRO environment variables named in their tags, and fall back to
// the tag defaults after that. RootPath defaults to the directory of the
// running executable.
type Settings struct {
	// RootPath is where the search for configuration files starts.
	RootPath string `env:"ROOT_PATH_FOR_HYDRO"`
	// SettingsFile replaces the settings.* search. A bare file name is
	// searched for; an absolute path is used as-is and a relative path is
	// taken relative to RootPath.
	SettingsFile string `env:"SETTINGS_FILE_FOR_HYDRO"`
	// SecretsFile replaces the .secrets.* search, following the same rules
	// as SettingsFile.
	SecretsFile string `env:"SECRETS_FILE_FOR_HYDRO"`
	// Env is the environment applied on top of the default table.
	Env string `env:"ENV_FOR_HYDRO" envDefault:"development"`
	// EnvvarPrefix selects the variables that override configuration values.
	EnvvarPrefix string `env:"ENVVAR_PREFIX_FOR_HYDRO" envDefault:"HYDRO"`
	// EnvvarNestedSep separates nested keys in those variables.
	EnvvarNestedSep string `env:"ENVVAR_NESTED_SEP_FOR_HYDRO" envDefault:"__"`
}

func (s Settings) WithRootPath(p string) Settings {
	s.RootPath = p
	return s
}

func (s Settings) WithSettingsFile(p string) Settings {
	s.SettingsFile = p
	return s
}

func (s Settings) WithSecretsFile(p string) Settings {
	s.SecretsFile = p
	return s
}

func (s Settings) WithEnv(name string) Settings {
	s.Env = name
	return s
}

func (s Settings) WithEnvvarPrefix(prefix string) Settings {
	s.EnvvarPrefix = prefix
	return s
}

func (s Settings) WithEnvvarNestedSep(sep string) Settings {
	s.EnvvarNestedSep = sep
	return s
}

// SettingsFromEnv reads Settings from an environment snapshot, applying the
// defaults for unset variables. RootPath stays empty when unset.
func SettingsFromEnv(environ map[string]string) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environ}); err != nil {
		return s, fmt.Errorf("error getting env settings: %w", err)
	}
	return s, nil
}

// effective fills the fields of s left empty by the caller, first from the
// environment, then from defaults.
func (s Settings) effective(environ map[string]string) (Settings, error) {
	fromEnv, err := SettingsFromEnv(environ)
	if err != nil {
		return s, err
	}
	if err := mergo.Merge(&s, fromEnv); err != nil {
		return s, fmt.Errorf("error merging settings: %w", err)
	}
	if s.RootPath == "" {
		s.RootPath = executableDir()
	}
	return s, nil
}

// executableDir returns the directory of the running binary, or the working
// directory when it cannot be determined.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
