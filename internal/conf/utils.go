package conf

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: working directory, user config directory, /etc.
// The user config directory is skipped when $HOME is unset.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "annotator"))
	}
	return append(paths, "/etc/annotator")
}
