// Package params exposes the process-wide key/value registry consulted
// for default index hints, e.g. "ibis.<partition>.index" and
// "ibis.<partition>.<column>.index". The registry is read through the
// Registry capability so tests can substitute a fixed map.
package params

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Registry resolves configuration keys to opaque string values. An
// unknown key yields the empty string.
type Registry interface {
	Lookup(key string) string
}

// Map is a fixed in-memory Registry, convenient in tests.
type Map map[string]string

// Lookup implements Registry.
func (m Map) Lookup(key string) string { return m[key] }

var (
	global     *viperRegistry
	globalOnce sync.Once
)

type viperRegistry struct {
	v *viper.Viper
}

func (r *viperRegistry) Lookup(key string) string { return r.v.GetString(key) }

// Global returns the process-wide registry. It reads an optional
// ibisrc configuration file from the working directory or the user's
// home, and environment variables of the form IBIS_<PART>_INDEX.
func Global() Registry {
	globalOnce.Do(func() {
		v := viper.New()
		v.SetConfigName("ibisrc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		// a missing configuration file is the normal case
		_ = v.ReadInConfig()
		global = &viperRegistry{v: v}
	})
	return global
}

// Set stores a value in the global registry, overriding any file or
// environment source. It is used by command-line tooling to pass index
// hints through.
func Set(key, value string) {
	Global()
	global.v.Set(key, value)
}
