// Package locate finds the files a resolution run reads: the settings file,
// an optional local settings file, an optional secrets file and optional
// dotenv files.
//
// The search starts at a root path and walks up to the filesystem root. At
// every level the directory itself and its "config" subdirectory are probed,
// in that order. Each kind of file is searched for independently and the
// first match wins.
package locate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/redhatinsights/hydroconf/internal/format"
)

const (
	settingsStem = "settings"
	secretsStem  = ".secrets"
	dotenvName   = ".env"
)

var settingsDirs = []string{"", "config"}

// Options controls a search.
type Options struct {
	// RootPath is where the upward walk starts. A file path starts the walk
	// at its directory.
	RootPath string
	// SettingsFile, when set, replaces the settings.* search. A bare file
	// name is searched for like the default names; an absolute path is used
	// as-is and a relative path with a directory component is taken relative
	// to the directory the walk starts in.
	SettingsFile string
	// SecretsFile works like SettingsFile for the secrets layer.
	SecretsFile string
	// Env is the active environment, used for ".env.<Env>".
	Env string

	Logger *slog.Logger
}

// Sources lists the located files. Empty strings mean "not found".
type Sources struct {
	Settings      string
	LocalSettings string
	Secrets       string
	// Dotenv holds ".env" and ".env.<env>", in that order, when present.
	Dotenv []string
}

// Find locates configuration files. A missing settings file is reported by
// an empty Sources.Settings, not by an error; errors are returned only for
// explicit file names whose format is unsupported.
func Find(opts Options) (Sources, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sources Sources
	dirs := Candidates(opts.RootPath)

	if opts.SettingsFile != "" {
		if _, err := format.ForPath(opts.SettingsFile); err != nil {
			return sources, fmt.Errorf("settings file %s: %w", opts.SettingsFile, err)
		}
		sources.Settings = findExplicit(dirs, opts.SettingsFile)
	} else {
		sources.Settings = findConventional(dirs, settingsStem)
	}

	if sources.Settings != "" {
		ext := filepath.Ext(sources.Settings)
		stem := strings.TrimSuffix(filepath.Base(sources.Settings), ext)
		sources.LocalSettings = findFile(dirs, stem+".local"+ext)
	}

	if opts.SecretsFile != "" {
		if _, err := format.ForPath(opts.SecretsFile); err != nil {
			return sources, fmt.Errorf("secrets file %s: %w", opts.SecretsFile, err)
		}
		sources.Secrets = findExplicit(dirs, opts.SecretsFile)
	} else {
		sources.Secrets = findConventional(dirs, secretsStem)
	}

	if p := findFile(dirs, dotenvName); p != "" {
		sources.Dotenv = append(sources.Dotenv, p)
	}
	if opts.Env != "" {
		if p := findFile(dirs, dotenvName+"."+opts.Env); p != "" {
			sources.Dotenv = append(sources.Dotenv, p)
		}
	}

	logger.Debug("located configuration files",
		"settings", sources.Settings,
		"local_settings", sources.LocalSettings,
		"secrets", sources.Secrets,
		"dotenv", sources.Dotenv)

	return sources, nil
}

// Candidates returns the directories searched from root, nearest first.
func Candidates(root string) []string {
	if root == "" {
		root = "."
	}
	dir, err := filepath.Abs(root)
	if err != nil {
		dir = filepath.Clean(root)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	var dirs []string
	for {
		for _, sub := range settingsDirs {
			dirs = append(dirs, filepath.Join(dir, sub))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

func findExplicit(dirs []string, name string) string {
	if filepath.Base(name) == name {
		return findFile(dirs, name)
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(dirs[0], name)
	}
	if isFile(name) {
		return name
	}
	return ""
}

// findConventional searches stem.<ext> for every supported extension. The
// nearest directory wins; within a directory, extensions are tried in
// format.Extensions order.
func findConventional(dirs []string, stem string) string {
	for _, dir := range dirs {
		for _, ext := range format.Extensions() {
			p := filepath.Join(dir, stem+"."+ext)
			if isFile(p) {
				return p
			}
		}
	}
	return ""
}

func findFile(dirs []string, name string) string {
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
