package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/redhatinsights/hydroconf/internal/failure"
	"github.com/redhatinsights/hydroconf/internal/materialize"
)

const quickstartSettings = `
[default]
pg.port = 5432
pg.host = 'localhost'

[production]
pg.host = 'db-0'
`

const quickstartSecrets = `
[default]
pg.password = 'a password'

[production]
pg.password = 'a strong password'
`

// writeFiles creates files relative to dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestConfigSource_Read(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		env      string
		environ  map[string]string
		expected map[string]any
	}{
		{
			name:  "default environment ignores production",
			files: map[string]string{"config/settings.toml": quickstartSettings},
			env:   "development",
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5432), "host": "localhost"},
			},
		},
		{
			name:  "production refines default",
			files: map[string]string{"config/settings.toml": quickstartSettings},
			env:   "production",
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5432), "host": "db-0"},
			},
		},
		{
			name: "secrets refine settings",
			files: map[string]string{
				"config/settings.toml": quickstartSettings,
				"config/.secrets.toml": quickstartSecrets,
			},
			env: "production",
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5432), "host": "db-0", "password": "a strong password"},
			},
		},
		{
			name: "environment variables win",
			files: map[string]string{
				"config/settings.toml": quickstartSettings,
				"config/.secrets.toml": quickstartSecrets,
			},
			env:     "production",
			environ: map[string]string{"HYDRO_PG__PASSWORD": "an even stronger password"},
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5432), "host": "db-0", "password": "an even stronger password"},
			},
		},
		{
			name: "secrets in another format",
			files: map[string]string{
				"settings.toml": quickstartSettings,
				".secrets.yaml": "default:\n  pg:\n    password: from yaml\n",
			},
			env: "development",
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5432), "host": "localhost", "password": "from yaml"},
			},
		},
		{
			name: "local settings refine both tables",
			files: map[string]string{
				"settings.toml":       quickstartSettings,
				"settings.local.toml": "[production]\npg.port = 5555\n",
			},
			env: "production",
			expected: map[string]any{
				"pg": map[string]any{"port": int64(5555), "host": "db-0"},
			},
		},
		{
			name: "dotenv files sit under the process environment",
			files: map[string]string{
				"settings.toml":   quickstartSettings,
				".env":            "HYDRO_PG__PORT=15330\nHYDRO_PG__HOST=dotenv-host\nHYDRO_DEBUG=true\n",
				".env.production": "HYDRO_PG__PORT=12329\n",
			},
			env:     "production",
			environ: map[string]string{"HYDRO_PG__HOST": "process-host"},
			expected: map[string]any{
				"pg":    map[string]any{"port": int64(12329), "host": "process-host"},
				"debug": true,
			},
		},
		{
			name:     "missing environment table is empty",
			files:    map[string]string{"settings.json": `{"default": {"name": "api"}}`},
			env:      "staging",
			expected: map[string]any{"name": "api"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)

			cs := &ConfigSource{RootPath: root, Env: tt.env, Environ: tt.environ}
			res, err := cs.Read()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, res.Tree.Interface()); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
			if cs.Stage() != failure.StageDone {
				t.Errorf("Stage() = %s after Read", cs.Stage())
			}
		})
	}
}

func TestConfigSource_Layers(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"settings.toml": quickstartSettings,
		".secrets.toml": quickstartSecrets,
	})

	cs := &ConfigSource{
		RootPath: root,
		Env:      "production",
		Environ:  map[string]string{"HYDRO_PG__PORT": "1234"},
	}
	res, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []LayerName
	for i, l := range res.Layers {
		if l.Rank != i {
			t.Errorf("layer %s has rank %d, want %d", l.Name, l.Rank, i)
		}
		names = append(names, l.Name)
	}
	want := []LayerName{
		LayerDefaultSettings,
		LayerEnvSettings,
		LayerDefaultSecrets,
		LayerEnvSecrets,
		LayerEnvironmentOverlay,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("layer order mismatch (-want +got):\n%s", diff)
	}

	envSecrets, _ := res.Layer(LayerEnvSecrets)
	if envSecrets.Path != filepath.Join(root, ".secrets.toml") {
		t.Errorf("env-secrets path = %q", envSecrets.Path)
	}
	if diff := cmp.Diff(map[string]any{"pg": map[string]any{"password": "a strong password"}}, envSecrets.Data.Interface()); diff != "" {
		t.Errorf("env-secrets mismatch (-want +got):\n%s", diff)
	}

	ov, _ := res.Layer(LayerEnvironmentOverlay)
	if diff := cmp.Diff(map[string]any{"pg": map[string]any{"port": int64(1234)}}, ov.Data.Interface()); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		source   ConfigSource
		sentinel error
		stage    failure.Stage
	}{
		{
			name:     "no settings file",
			files:    map[string]string{".secrets.toml": quickstartSecrets},
			sentinel: failure.ErrNoSettingsFile,
			stage:    failure.StageLocatingFiles,
		},
		{
			name:     "unsupported explicit settings file",
			files:    map[string]string{"settings.xml": "<default/>"},
			source:   ConfigSource{SettingsFile: "settings.xml"},
			sentinel: failure.ErrUnsupportedFormat,
			stage:    failure.StageLocatingFiles,
		},
		{
			name:     "malformed settings file",
			files:    map[string]string{"settings.toml": "not valid toml ==="},
			sentinel: failure.ErrParse,
			stage:    failure.StageParsingLayers,
		},
		{
			name: "malformed secrets file",
			files: map[string]string{
				"settings.toml": quickstartSettings,
				".secrets.json": `{"default": `,
			},
			sentinel: failure.ErrParse,
			stage:    failure.StageParsingLayers,
		},
		{
			name:     "environment table is not a table",
			files:    map[string]string{"settings.toml": "default = 1\n"},
			sentinel: failure.ErrParse,
			stage:    failure.StageParsingLayers,
		},
		{
			name:  "overlay descends through a string",
			files: map[string]string{"settings.toml": quickstartSettings},
			source: ConfigSource{
				Environ: map[string]string{"HYDRO_PG__HOST__X": "1"},
			},
			sentinel: failure.ErrOverlayPathConflict,
			stage:    failure.StageApplyingOverlay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)

			cs := tt.source
			cs.RootPath = root
			res, err := cs.Read()
			if res != nil {
				t.Errorf("expected no resolution on failure, got %v", res.Tree)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var classified *failure.Error
			if !errors.As(err, &classified) {
				t.Fatalf("expected *failure.Error, got %T", err)
			}
			if classified.Stage != tt.stage {
				t.Errorf("Stage = %s, want %s", classified.Stage, tt.stage)
			}
			if cs.Stage() != failure.StageFailed {
				t.Errorf("source stage = %s, want failed", cs.Stage())
			}
		})
	}
}

func TestConfigSource_Hydrate(t *testing.T) {
	type postgres struct {
		Host     string `hydro:"host"`
		Port     uint16 `hydro:"port"`
		Password string `hydro:"password"`
	}
	type config struct {
		PG postgres `hydro:"pg"`
	}

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"config/settings.toml": quickstartSettings,
		"config/.secrets.toml": quickstartSecrets,
	})

	t.Run("typed result", func(t *testing.T) {
		var got config
		cs := &ConfigSource{RootPath: root, Env: "production"}
		if _, err := cs.Hydrate(&got, materialize.Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := config{PG: postgres{Host: "db-0", Port: 5432, Password: "a strong password"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Hydrate() mismatch (-want +got):\n%s", diff)
		}
		if cs.Stage() != failure.StageDone {
			t.Errorf("Stage() = %s, want done", cs.Stage())
		}
	})

	t.Run("string for an integer", func(t *testing.T) {
		var got config
		cs := &ConfigSource{
			RootPath: root,
			Env:      "production",
			Environ:  map[string]string{"HYDRO_PG__PORT": "notanumber"},
		}
		_, err := cs.Hydrate(&got, materialize.Options{})
		if !errors.Is(err, failure.ErrMaterialization) {
			t.Fatalf("expected ErrMaterialization, got %v", err)
		}
	})
}

func TestConfigSource_RunsOnce(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"settings.toml": quickstartSettings})

	cs := &ConfigSource{RootPath: root}
	if _, err := cs.Read(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cs.Read(); err == nil {
		t.Errorf("expected an error when reusing a source")
	}
}

func TestConfigSource_DotenvCase(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"settings.toml":   quickstartSettings,
		".env":            "hydro_pg__port=1111\nHYDRO_PG__HOST=dotenv-host\n",
		".env.production": "Hydro_Pg__Host=production-host\n",
	})

	cs := &ConfigSource{
		RootPath: root,
		Env:      "production",
		Environ:  map[string]string{"HYDRO_PG__PORT": "2222"},
	}
	res, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"pg": map[string]any{"host": "production-host", "port": int64(2222)},
	}
	if diff := cmp.Diff(want, res.Tree.Interface()); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot(t *testing.T) {
	tests := []struct {
		description string
		dotenv      []map[string]string
		environ     map[string]string
		want        map[string]string
	}{
		{
			description: "process environment over dotenv",
			dotenv:      []map[string]string{{"A": "dotenv", "B": "dotenv"}},
			environ:     map[string]string{"A": "process"},
			want:        map[string]string{"A": "process", "B": "dotenv"},
		},
		{
			description: "spelling differs only in case",
			dotenv:      []map[string]string{{"hydro_port": "dotenv"}},
			environ:     map[string]string{"HYDRO_PORT": "process"},
			want:        map[string]string{"HYDRO_PORT": "process"},
		},
		{
			description: "later dotenv file wins",
			dotenv: []map[string]string{
				{"HYDRO_PORT": "first", "HYDRO_HOST": "first"},
				{"hydro_port": "second"},
			},
			want: map[string]string{"hydro_port": "second", "HYDRO_HOST": "first"},
		},
		{
			description: "nothing set",
			want:        map[string]string{},
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			got := snapshot(test.dotenv, test.environ)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("snapshot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
