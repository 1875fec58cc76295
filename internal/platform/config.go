package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/aretw0/logbook/pkg/git"
)

// EnvPrefix prefixes every environment variable read by LoadConfig (LOGBOOK_DATA_DIR, ...).
const EnvPrefix = "LOGBOOK"

// Config is the deployer configuration of a logbook.
type Config struct {
	DataDir      string `mapstructure:"data_dir"`
	AuthorName   string `mapstructure:"author_name"`
	AuthorEmail  string `mapstructure:"author_email"`
	SchemaFile   string `mapstructure:"schema_file"`
	Remote       string `mapstructure:"remote"`
	ShadowBranch string `mapstructure:"shadow_branch"`
	SyncRemote   string `mapstructure:"sync_remote"`
	LogFile      string `mapstructure:"log_file"`
	LogLevel     string `mapstructure:"log_level"`
	Editor       string `mapstructure:"editor"`
}

// Author returns the configured identity as "Name <email>".
func (c Config) Author() string {
	return git.Identity{Name: c.AuthorName, Email: c.AuthorEmail}.String()
}

// Identity returns the configured identity.
func (c Config) Identity() git.Identity {
	return git.Identity{Name: c.AuthorName, Email: c.AuthorEmail}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".logbook-data"
	}
	return filepath.Join(home, ".local", "share", "logbook")
}

// NewViper returns a viper instance with the defaults, the environment binding, and the
// config search path of a logbook. Callers may bind flags on it before LoadConfig.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("author_name", "")
	v.SetDefault("author_email", "")
	v.SetDefault("schema_file", "")
	v.SetDefault("remote", "origin")
	v.SetDefault("shadow_branch", git.ShadowBranch)
	v.SetDefault("sync_remote", git.SyncRemote)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("editor", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "logbook"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "logbook"))
	}
	return v
}

// LoadConfig reads the config file (explicit path, or the first one found on the search
// path) and resolves every key. A missing config file is not an error unless it was named.
func LoadConfig(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Editor == "" {
		cfg.Editor = firstNonEmpty(os.Getenv("VISUAL"), os.Getenv("EDITOR"), "vi")
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.SchemaFile = expandHome(cfg.SchemaFile)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
