// Package config loads the CLI configuration from config files,
// environment variables and .env files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem all commands go through, swappable in tests.
var AppFs = afero.NewOsFs()

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Provider    string
	SnapshotDir string
}

// Load reads configuration from config files and the environment. A
// missing config file is not an error.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".schemadrift")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "schemadrift"))

	viper.SetEnvPrefix("SCHEMADRIFT")
	viper.AutomaticEnv()

	viper.SetDefault("provider", "postgresql")
	viper.SetDefault("snapshot_dir", ".")

	_ = viper.ReadInConfig()

	// .env first, .env.local overrides it.
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Provider:    viper.GetString("provider"),
		SnapshotDir: viper.GetString("snapshot_dir"),
	}
	if url := viper.GetString("database_url"); url != "" {
		cfg.DatabaseURL = url
	}

	return cfg, nil
}

// Save writes the configuration to the user's config directory.
func Save(cfg *Config) error {
	viper.Set("provider", cfg.Provider)
	viper.Set("snapshot_dir", cfg.SnapshotDir)

	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(home, ".config", "schemadrift")
	if err := AppFs.MkdirAll(configPath, 0755); err != nil {
		return err
	}

	return viper.WriteConfigAs(filepath.Join(configPath, ".schemadrift.yaml"))
}
