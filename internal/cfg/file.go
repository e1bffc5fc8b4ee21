package cfg

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FillFromFile applies a YAML file of flag-name: value pairs. A flag is
// only set from the file when it was not passed on the CLI and its
// PREFIX_ env var is unset. Unknown keys and unparsable values are errors.
func FillFromFile(fs *flag.FlagSet, path, prefix string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var bad []string
	for _, name := range keys {
		if fs.Lookup(name) == nil {
			bad = append(bad, fmt.Sprintf("unknown key %q", name))
			continue
		}
		if explicit[name] {
			continue
		}
		if _, ok := os.LookupEnv(envKey(prefix, name)); ok {
			continue
		}
		if err := fs.Set(name, yamlScalar(values[name])); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("config file %s: %s", path, strings.Join(bad, "; "))
	}
	return nil
}

func yamlScalar(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
