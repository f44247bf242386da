package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file name searched in standard locations.
const FileName = "tgsend.yaml"

// ResolvePath returns explicit when set. Otherwise it searches standard
// locations in order: $XDG_CONFIG_HOME/tgsend/tgsend.yaml (or
// ~/.config/tgsend/tgsend.yaml when XDG_CONFIG_HOME is unset), then
// ./tgsend.yaml.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	candidates := SearchPaths()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config: no configuration file found (searched: %v)", candidates)
}

// SearchPaths lists the locations ResolvePath probes, in order.
func SearchPaths() []string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "tgsend", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "tgsend", FileName))
	}

	return append(candidates, FileName)
}
