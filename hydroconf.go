package hydroconf

import (
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/redhatinsights/hydroconf/internal/conf"
	"github.com/redhatinsights/hydroconf/internal/failure"
	"github.com/redhatinsights/hydroconf/internal/locate"
	"github.com/redhatinsights/hydroconf/internal/materialize"
)

// Resolution reports the files and layers a resolution used along with the
// resolved tree.
type Resolution = conf.Resolution

// Layer is one ranked source of configuration values.
type Layer = conf.Layer

// LayerName identifies a Layer.
type LayerName = conf.LayerName

const (
	LayerDefaultSettings    = conf.LayerDefaultSettings
	LayerEnvSettings        = conf.LayerEnvSettings
	LayerDefaultSecrets     = conf.LayerDefaultSecrets
	LayerEnvSecrets         = conf.LayerEnvSecrets
	LayerEnvironmentOverlay = conf.LayerEnvironmentOverlay
)

// Hydroconf resolves configuration. It holds no state between calls: every
// call re-reads the files and takes a fresh snapshot of the environment, so
// a Hydroconf may be used from several goroutines at once.
type Hydroconf struct {
	settings    Settings
	logger      *slog.Logger
	environ     func() []string
	materialize materialize.Options
}

// Option customizes a Hydroconf.
type Option func(*Hydroconf)

// WithLogger sets the logger used for debug output. Values are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hydroconf) {
		h.logger = logger
	}
}

// WithEnviron replaces the process environment with a fixed list of
// "KEY=value" pairs.
func WithEnviron(environ []string) Option {
	return func(h *Hydroconf) {
		h.environ = func() []string { return environ }
	}
}

// WithOptionalFields lets target struct fields without a configuration value
// keep their current value instead of failing materialization.
func WithOptionalFields() Option {
	return func(h *Hydroconf) {
		h.materialize.AllowUnset = true
	}
}

// New returns a Hydroconf. Fields of settings left empty are filled from the
// *_FOR_HYDRO variables and defaults on every call.
func New(settings Settings, opts ...Option) *Hydroconf {
	h := &Hydroconf{
		settings: settings,
		logger:   slog.Default(),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Default returns a Hydroconf configured entirely from the environment.
func Default(opts ...Option) *Hydroconf {
	return New(Settings{}, opts...)
}

// Settings returns the settings a call made now would use.
func (h *Hydroconf) Settings() (Settings, error) {
	return h.settings.effective(env.ToMap(h.environ()))
}

// Resolve locates, parses and merges the configuration and returns the
// result without materializing it.
func (h *Hydroconf) Resolve() (*Resolution, error) {
	cs, err := h.source()
	if err != nil {
		return nil, err
	}
	return cs.Read()
}

// HydrateInto resolves the configuration and decodes it into target, which
// must be a non-nil pointer.
func (h *Hydroconf) HydrateInto(target any) error {
	cs, err := h.source()
	if err != nil {
		return err
	}
	_, err = cs.Hydrate(target, h.materialize)
	return err
}

// Hydrate resolves the configuration into a new T.
func Hydrate[T any](h *Hydroconf) (T, error) {
	var target T
	if err := h.HydrateInto(&target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}

// source prepares a single run from one snapshot of the environment.
func (h *Hydroconf) source() (*conf.ConfigSource, error) {
	environ := env.ToMap(h.environ())
	s, err := h.settings.effective(environ)
	if err != nil {
		return nil, err
	}

	logger := h.logger.With("run", uuid.NewString())
	logger.Debug("resolving configuration", "root", s.RootPath, "env", s.Env)

	return &conf.ConfigSource{
		RootPath:        s.RootPath,
		SettingsFile:    s.SettingsFile,
		SecretsFile:     s.SecretsFile,
		Env:             s.Env,
		EnvvarPrefix:    s.EnvvarPrefix,
		EnvvarNestedSep: s.EnvvarNestedSep,
		Environ:         environ,
		Logger:          logger,
	}, nil
}

// Sources lists the files a resolution reads.
type Sources = locate.Sources

// Locate reports the files a resolution made now would read, without
// parsing them. A missing settings file is not an error here.
func (h *Hydroconf) Locate() (Sources, error) {
	s, err := h.Settings()
	if err != nil {
		return Sources{}, err
	}
	files, err := locate.Find(locate.Options{
		RootPath:     s.RootPath,
		SettingsFile: s.SettingsFile,
		SecretsFile:  s.SecretsFile,
		Env:          s.Env,
		Logger:       h.logger,
	})
	if err != nil {
		return Sources{}, failure.New(failure.KindUnsupportedFormat, failure.StageLocatingFiles, "", err)
	}
	return files, nil
}
