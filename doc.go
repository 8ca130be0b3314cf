// Package hydroconf resolves an application's configuration from a settings
// file, a secrets file and environment variables.
//
// # Quickstart
//
// Given this layout:
//
//	├── config
//	│   ├── .secrets.toml
//	│   └── settings.toml
//	└── your-executable
//
// settings.toml:
//
//	[default]
//	pg.port = 5432
//	pg.host = 'localhost'
//
//	[production]
//	pg.host = 'db-0'
//
// .secrets.toml:
//
//	[default]
//	pg.password = 'a password'
//
//	[production]
//	pg.password = 'a strong password'
//
// the configuration is loaded into a struct with:
//
//	type Config struct {
//	    PG struct {
//	        Host     string `hydro:"host"`
//	        Port     uint16 `hydro:"port"`
//	        Password string `hydro:"password"`
//	    } `hydro:"pg"`
//	}
//
//	cfg, err := hydroconf.Hydrate[Config](hydroconf.Default())
//
// The [default] tables are always applied. ENV_FOR_HYDRO selects the
// environment merged over them ("development" unless set), so with
// ENV_FOR_HYDRO=production the host becomes "db-0" and the password
// "a strong password". Any value can then be overridden from the
// environment: HYDRO_PG__PASSWORD="an even stronger password".
//
// # Environment variables
//
// Variables of the form *_FOR_HYDRO configure the resolver, see Settings.
// Variables of the form HYDRO_* override configuration values. The prefix
// and the nesting separator ("__") are configurable; the remainder of the
// name is lower-cased and split on the separator, so HYDRO_REDIS__HOST sets
// redis.host. Values are read as booleans, integers or floats when they
// spell one, and as strings otherwise.
//
// # File discovery
//
// The search starts at Settings.RootPath, or the directory of the running
// executable, and walks up to the filesystem root, probing each directory and
// its config subdirectory for settings.{toml,json,yaml,yml,ini,hjson} and
// .secrets.{...}. A settings.local.* file is merged over the settings file
// when present. .env and .env.<environment> files feed the environment
// overrides, beneath the real process environment.
//
// # Precedence
//
// Lowest first: default settings, environment settings, default secrets,
// environment secrets, environment variables. Tables merge key by key;
// anything else is replaced by the higher layer.
//
// # Errors
//
// A missing settings file, an unknown file extension, a malformed file, an
// environment variable that would descend through a non-table value, and a
// tree that does not fit the target type are reported as *Error values
// matching ErrNoSettingsFile, ErrUnsupportedFormat, ErrParse,
// ErrOverlayPathConflict and ErrMaterialization. A missing secrets file is
// not an error.
package hydroconf
