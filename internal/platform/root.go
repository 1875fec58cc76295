package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/aretw0/logbook/pkg/git"
)

// FindRoot looks upwards from startDir for a logbook data directory, marked by its system
// directory, or failing that for the nearest git repository.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	fallback := ""
	for dir := abs; ; {
		if hasFile(dir, git.SystemDir) {
			return dir, nil
		}
		if fallback == "" && hasFile(dir, ".git") {
			fallback = dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("root not found")
}

// DiscoverDataDir points cfg at the logbook enclosing cwd when data_dir was left to its
// default, i.e. set neither by the environment nor by the config file. Only a root carrying
// the system directory counts; a plain git repository is never taken. It reports whether
// cfg changed.
func DiscoverDataDir(v *viper.Viper, cfg *Config, cwd string) bool {
	if v.InConfig("data_dir") {
		return false
	}
	if _, ok := os.LookupEnv(EnvPrefix + "_DATA_DIR"); ok {
		return false
	}
	root, err := FindRoot(cwd)
	if err != nil || !hasFile(root, git.SystemDir) {
		return false
	}
	cfg.DataDir = root
	return true
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
