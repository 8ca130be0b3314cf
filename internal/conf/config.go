package conf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/redhatinsights/hydroconf/internal/failure"
	"github.com/redhatinsights/hydroconf/internal/format"
	"github.com/redhatinsights/hydroconf/internal/locate"
	"github.com/redhatinsights/hydroconf/internal/materialize"
	"github.com/redhatinsights/hydroconf/internal/overlay"
	"github.com/redhatinsights/hydroconf/internal/value"
)

// DefaultTable is the table of a settings or secrets file that applies to
// every environment.
const DefaultTable = "default"

// LayerName identifies a layer of a resolution run.
type LayerName string

// Layers in precedence order, lowest first.
const (
	LayerDefaultSettings    LayerName = "default-settings"
	LayerEnvSettings        LayerName = "env-settings"
	LayerDefaultSecrets     LayerName = "default-secrets"
	LayerEnvSecrets         LayerName = "env-secrets"
	LayerEnvironmentOverlay LayerName = "environment-overlay"
)

// Layer is one ranked source of configuration values.
type Layer struct {
	Name LayerName
	// Rank orders layers; higher ranks win.
	Rank int
	// Path is the file the layer was read from, if any.
	Path string
	Data value.Value
}

// Resolution is the outcome of a successful Read.
type Resolution struct {
	Files  locate.Sources
	Layers []Layer
	Tree   value.Value
}

// Layer returns the layer with the given name.
func (r *Resolution) Layer(name LayerName) (Layer, bool) {
	for _, l := range r.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// ConfigSource performs a single resolution run. Build a new one for every
// run; a used source refuses to run again.
type ConfigSource struct {
	RootPath        string
	SettingsFile    string
	SecretsFile     string
	Env             string
	EnvvarPrefix    string
	EnvvarNestedSep string
	// Environ is the process environment snapshot the overlay reads.
	Environ map[string]string

	Logger *slog.Logger

	stage failure.Stage
}

// Stage returns how far the run got.
func (cs *ConfigSource) Stage() failure.Stage {
	return cs.stage
}

// Read loads and returns the resolved tree by merging all layers:
// 1. default table of the settings file
// 2. active environment table of the settings file
// 3. default table of the secrets file
// 4. active environment table of the secrets file
// 5. prefixed environment variables
func (cs *ConfigSource) Read() (*Resolution, error) {
	res, err := cs.read()
	if err != nil {
		return nil, err
	}
	cs.enter(failure.StageDone)
	return res, nil
}

func (cs *ConfigSource) read() (*Resolution, error) {
	if cs.stage != failure.StageIdle {
		return nil, fmt.Errorf("configuration source already ran (stage %s)", cs.stage)
	}

	cs.enter(failure.StageLocatingFiles)
	files, err := locate.Find(locate.Options{
		RootPath:     cs.RootPath,
		SettingsFile: cs.SettingsFile,
		SecretsFile:  cs.SecretsFile,
		Env:          cs.Env,
		Logger:       cs.logger(),
	})
	if err != nil {
		return nil, cs.fail(failure.KindUnsupportedFormat, "", err)
	}
	if files.Settings == "" {
		return nil, cs.fail(failure.KindNoSettingsFile, "", fmt.Errorf("searched upward from %s", cs.RootPath))
	}

	cs.enter(failure.StageParsingLayers)
	settings, err := cs.parseFile(files.Settings)
	if err != nil {
		return nil, err
	}
	if files.LocalSettings != "" {
		local, err := cs.parseFile(files.LocalSettings)
		if err != nil {
			return nil, err
		}
		settings = value.Merge(settings, local)
	}

	secrets := value.EmptyTable()
	if files.Secrets != "" {
		secrets, err = cs.parseFile(files.Secrets)
		if err != nil {
			return nil, err
		}
	}

	dotenv, err := cs.readDotenv(files.Dotenv)
	if err != nil {
		return nil, err
	}

	var layers []Layer
	for _, src := range []struct {
		name  LayerName
		doc   value.Value
		path  string
		table string
	}{
		{LayerDefaultSettings, settings, files.Settings, DefaultTable},
		{LayerEnvSettings, settings, files.Settings, cs.Env},
		{LayerDefaultSecrets, secrets, files.Secrets, DefaultTable},
		{LayerEnvSecrets, secrets, files.Secrets, cs.Env},
	} {
		data, err := section(src.doc, src.table)
		if err != nil {
			return nil, cs.fail(failure.KindParse, src.path, err)
		}
		layers = append(layers, Layer{Name: src.name, Rank: len(layers), Path: src.path, Data: data})
	}

	cs.enter(failure.StageMerging)
	tree := value.EmptyTable()
	for _, l := range layers {
		tree = value.Merge(tree, l.Data)
	}

	cs.enter(failure.StageApplyingOverlay)
	environ := snapshot(dotenv, cs.Environ)
	ov, err := overlay.Build(environ, tree, overlay.Options{
		Prefix:    cs.EnvvarPrefix,
		Separator: cs.EnvvarNestedSep,
		Logger:    cs.logger(),
	})
	if err != nil {
		return nil, cs.fail(failure.KindOverlayPathConflict, "", err)
	}
	layers = append(layers, Layer{Name: LayerEnvironmentOverlay, Rank: len(layers), Data: ov})
	tree = value.Merge(tree, ov)

	return &Resolution{Files: files, Layers: layers, Tree: tree}, nil
}

// Hydrate resolves like Read and decodes the resolved tree into target.
func (cs *ConfigSource) Hydrate(target any, opts materialize.Options) (*Resolution, error) {
	res, err := cs.read()
	if err != nil {
		return nil, err
	}

	cs.enter(failure.StageMaterializing)
	if err := materialize.Into(res.Tree, target, opts); err != nil {
		return nil, cs.fail(failure.KindMaterialization, "", err)
	}

	cs.enter(failure.StageDone)
	return res, nil
}

// parseFile reads path and decodes it with the adapter for its extension.
func (cs *ConfigSource) parseFile(path string) (value.Value, error) {
	adapter, err := format.ForPath(path)
	if err != nil {
		return value.Value{}, cs.fail(failure.KindUnsupportedFormat, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, cs.fail(failure.KindParse, path, err)
	}

	doc, err := adapter.Parse(data)
	if err != nil {
		return value.Value{}, cs.fail(failure.KindParse, path, err)
	}

	cs.logger().Debug("collected configuration file", "path", path)
	return doc, nil
}

// readDotenv parses the dotenv files in order.
func (cs *ConfigSource) readDotenv(paths []string) ([]map[string]string, error) {
	var envs []map[string]string
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, cs.fail(failure.KindParse, path, err)
		}
		env, err := gotenv.StrictParse(f)
		f.Close()
		if err != nil {
			return nil, cs.fail(failure.KindParse, path, err)
		}
		cs.logger().Debug("collected dotenv file", "path", path, "variables", len(env))
		envs = append(envs, env)
	}
	return envs, nil
}

// section returns the named top-level table of doc, or an empty table when
// the name is empty or absent.
func section(doc value.Value, name string) (value.Value, error) {
	if name == "" {
		return value.EmptyTable(), nil
	}
	v, ok := doc.Lookup(name)
	if !ok {
		return value.EmptyTable(), nil
	}
	if !v.IsTable() {
		return value.Value{}, fmt.Errorf("environment %q must be a table, got %s", name, v.Kind())
	}
	return v, nil
}

// snapshot layers the process environment over the dotenv files; later
// dotenv files win over earlier ones. Names are compared case-insensitively,
// so a name set by a higher source hides every spelling of it below.
func snapshot(dotenv []map[string]string, environ map[string]string) map[string]string {
	type entry struct{ name, value string }
	folded := map[string]entry{}
	set := func(env map[string]string) {
		names := make([]string, 0, len(env))
		for k := range env {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			folded[strings.ToUpper(k)] = entry{k, env[k]}
		}
	}
	for _, env := range dotenv {
		set(env)
	}
	set(environ)

	out := make(map[string]string, len(folded))
	for _, e := range folded {
		out[e.name] = e.value
	}
	return out
}

func (cs *ConfigSource) enter(next failure.Stage) {
	cs.logger().Debug("entering stage", "from", cs.stage.String(), "to", next.String())
	cs.stage = next
}

func (cs *ConfigSource) fail(kind failure.Kind, path string, err error) error {
	stage := cs.stage
	cs.stage = failure.StageFailed

	var conflict *overlay.ConflictError
	if errors.As(err, &conflict) {
		cs.logger().Debug("environment override conflict",
			"variable", conflict.Variable, "at", strings.Join(conflict.At, "."))
	}
	cs.logger().Debug("resolution failed", "stage", stage.String(), "kind", kind.String(), "path", path)
	return failure.New(kind, stage, path, err)
}

func (cs *ConfigSource) logger() *slog.Logger {
	if cs.Logger == nil {
		return slog.Default()
	}
	return cs.Logger
}
