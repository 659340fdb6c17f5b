package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/gold/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// defaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// configPath returns the absolute path to a file or directory formed by joining
// the global configuration directory path with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// configFiles returns the configuration file paths for each supported
// format, keyed by file extension.
func configFiles() map[string]string {
	return map[string]string{
		pkg.Extension: configPath(baseConfig + pkg.Extension),
		".json":       configPath(baseConfig + ".json"),
		".yaml":       configPath(baseConfig + ".yaml"),
		".yml":        configPath(baseConfig + ".yml"),
	}
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
