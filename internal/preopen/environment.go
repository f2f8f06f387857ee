package preopen

import (
	"os"
	"sort"
	"strings"
)

// Environment is an immutable snapshot of a process environment.
type Environment struct {
	vars map[string]string
}

// CurrentEnvironment snapshots os.Environ.
func CurrentEnvironment() Environment {
	return EnvironmentFrom(os.Environ())
}

// EnvironmentFrom parses KEY=VALUE entries. Later duplicates win, matching
// how exec treats a repeated key.
func EnvironmentFrom(environ []string) Environment {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := splitEntry(kv)
		if !ok {
			continue
		}
		vars[key] = value
	}
	return Environment{vars: vars}
}

// splitEntry splits KEY=VALUE. Windows keeps per-drive working directories
// under hidden keys such as "=C:", so a leading '=' belongs to the key.
func splitEntry(kv string) (key, value string, ok bool) {
	if strings.HasPrefix(kv, "=") {
		i := strings.IndexByte(kv[1:], '=')
		if i < 0 {
			return "", "", false
		}
		return kv[:i+1], kv[i+2:], true
	}
	key, value, ok = strings.Cut(kv, "=")
	return key, value, ok && key != ""
}

// EnvironmentOf builds a snapshot from a map, copying it.
func EnvironmentOf(vars map[string]string) Environment {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return Environment{vars: copied}
}

// Lookup reports the value of name and whether it is set.
func (e Environment) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Get returns the value of name, or "" when unset.
func (e Environment) Get(name string) string {
	return e.vars[name]
}

// Environ renders the snapshot as sorted KEY=VALUE entries.
func (e Environment) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
