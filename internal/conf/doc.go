// Package conf runs the configuration resolution pipeline.
//
// # Usage
//
// A ConfigSource performs one run. The caller provides the resolver settings
// and an environment snapshot:
//
//	cs := &conf.ConfigSource{
//	    RootPath: "/srv/api-server",
//	    Env:      "production",
//	    Environ:  env.ToMap(os.Environ()),
//	}
//	res, err := cs.Read()
//
// # Load Order
//
// The resolved tree is built from five layers, lowest precedence first:
//
//  1. default-settings: the [default] table of settings.*
//  2. env-settings: the table named after the active environment
//  3. default-secrets: the [default] table of .secrets.*
//  4. env-secrets: the active environment table of .secrets.*
//  5. environment-overlay: HYDRO_* variables (and dotenv files)
//
// A settings.local.* file, when present, is merged over settings.* before
// the tables are split, so it refines layers 1 and 2.
//
// # Stages
//
// A run moves through the stages of failure.Stage in order and stops at the
// first error, which is returned as a *failure.Error carrying its kind and
// the stage it happened in. No partial result is returned. Read skips
// materialization and ends in failure.StageDone once the overlay is applied.
package conf
