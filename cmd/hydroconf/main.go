package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/redhatinsights/hydroconf"
	"github.com/redhatinsights/hydroconf/internal/l10n"
)

const (
	exitFailure        = 1
	exitNoSettingsFile = 2
	exitParse          = 3
	exitOverlay        = 4
)

func main() {
	app := newApp(os.Environ())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

// newApp builds the command line interface reading environ instead of the
// process environment.
func newApp(environ []string) *cli.App {
	app := cli.NewApp()
	app.Name = "hydroconf"
	app.Usage = l10n.T("inspect the configuration an application would resolve")
	app.HideHelpCommand = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "root",
			Usage: l10n.T("start the file search in `DIR`"),
		},
		&cli.StringFlag{
			Name:  "settings-file",
			Usage: l10n.T("read settings from `FILE`"),
		},
		&cli.StringFlag{
			Name:  "secrets-file",
			Usage: l10n.T("read secrets from `FILE`"),
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: l10n.T("apply the `NAME` environment table"),
		},
		&cli.StringFlag{
			Name:  "envvar-prefix",
			Usage: l10n.T("read overrides from variables starting with `PREFIX`"),
		},
		&cli.StringFlag{
			Name:  "envvar-nested-sep",
			Usage: l10n.T("split override names on `SEP`"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "warn",
			Usage: l10n.T("log at `LEVEL` (debug, info, warn, error)"),
		},
	}
	app.Before = func(c *cli.Context) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
			return cli.Exit(l10n.T("invalid log level %q", c.String("log-level")), exitFailure)
		}
		c.App.Metadata["logger"] = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:  "sources",
			Usage: l10n.T("print the files that would be read"),
			Action: func(c *cli.Context) error {
				return sourcesAction(c, environ)
			},
		},
		{
			Name:  "dump",
			Usage: l10n.T("print the resolved configuration"),
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Value: "json",
					Usage: l10n.T("encode as `FORMAT` (json, yaml, toml)"),
				},
				&cli.StringFlag{
					Name:  "layer",
					Usage: l10n.T("print only the layer `NAME`"),
				},
			},
			Action: func(c *cli.Context) error {
				return dumpAction(c, environ)
			},
		},
	}
	app.Metadata = map[string]interface{}{}
	return app
}

func resolver(c *cli.Context, environ []string) *hydroconf.Hydroconf {
	settings := hydroconf.Settings{}.
		WithRootPath(c.String("root")).
		WithSettingsFile(c.String("settings-file")).
		WithSecretsFile(c.String("secrets-file")).
		WithEnv(c.String("env")).
		WithEnvvarPrefix(c.String("envvar-prefix")).
		WithEnvvarNestedSep(c.String("envvar-nested-sep"))

	opts := []hydroconf.Option{hydroconf.WithEnviron(environ)}
	if logger, ok := c.App.Metadata["logger"].(*slog.Logger); ok {
		opts = append(opts, hydroconf.WithLogger(logger))
	}
	return hydroconf.New(settings, opts...)
}

func sourcesAction(c *cli.Context, environ []string) error {
	files, err := resolver(c, environ).Locate()
	if err != nil {
		return exitError(err)
	}

	w := c.App.Writer
	for _, entry := range []struct {
		label string
		path  string
	}{
		{l10n.T("settings"), files.Settings},
		{l10n.T("local settings"), files.LocalSettings},
		{l10n.T("secrets"), files.Secrets},
	} {
		path := entry.path
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(w, "%s: %s\n", entry.label, path)
	}
	fmt.Fprintf(w, "%s: %s\n", l10n.TN("dotenv file", "dotenv files", uint32(len(files.Dotenv))), strings.Join(files.Dotenv, ", "))

	if files.Settings == "" {
		return cli.Exit(l10n.T("no settings file found"), exitNoSettingsFile)
	}
	return nil
}

func dumpAction(c *cli.Context, environ []string) error {
	res, err := resolver(c, environ).Resolve()
	if err != nil {
		return exitError(err)
	}

	tree := res.Tree
	if name := c.String("layer"); name != "" {
		layer, ok := res.Layer(hydroconf.LayerName(name))
		if !ok {
			return cli.Exit(l10n.T("unknown layer %q", name), exitFailure)
		}
		tree = layer.Data
	}

	return encode(c.App.Writer, c.String("format"), tree.Interface())
}

func encode(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		var (
			out []byte
			err error
		)
		if isTerminal(w) {
			out, err = json.MarshalIndent(data, "", "  ")
		} else {
			out, err = json.Marshal(data)
		}
		if err != nil {
			return cli.Exit(l10n.T("cannot encode configuration: %v", err), exitFailure)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return cli.Exit(l10n.T("cannot encode configuration: %v", err), exitFailure)
		}
		_, err = w.Write(out)
		return err
	case "toml":
		if err := toml.NewEncoder(w).Encode(data); err != nil {
			return cli.Exit(l10n.T("cannot encode configuration: %v", err), exitFailure)
		}
		return nil
	default:
		return cli.Exit(l10n.T("unsupported output format %q", format), exitFailure)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// exitError maps a resolution error to the exit code of its kind.
func exitError(err error) error {
	code := exitFailure
	switch {
	case errors.Is(err, hydroconf.ErrNoSettingsFile):
		code = exitNoSettingsFile
	case errors.Is(err, hydroconf.ErrUnsupportedFormat), errors.Is(err, hydroconf.ErrParse):
		code = exitParse
	case errors.Is(err, hydroconf.ErrOverlayPathConflict):
		code = exitOverlay
	}
	return cli.Exit(l10n.T("cannot resolve configuration: %v", err), code)
}
