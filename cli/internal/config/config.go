// Package config loads CLI settings from config files, the environment
// and .env files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

const (
	fileName  = ".prisma-query"
	envPrefix = "PRISMA_QUERY"
)

// Config holds the application configuration
type Config struct {
	Provider        string
	ProviderVersion string
	CatalogPath     string
	SchemaName      string
	DatabaseURL     string
	Debug           bool
	LogFormat       string
}

// LoadConfig loads configuration from various sources. An explicit file
// path replaces the search of ., $HOME and $HOME/.config/prisma-query.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "prisma-query"))
	}
	v.SetFs(AppFs)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("provider", "postgresql")
	v.SetDefault("catalog_path", "catalog.yaml")
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	loadDotEnv()

	cfg := &Config{
		Provider:        v.GetString("provider"),
		ProviderVersion: v.GetString("provider_version"),
		CatalogPath:     v.GetString("catalog_path"),
		SchemaName:      v.GetString("schema_name"),
		DatabaseURL:     v.GetString("database_url"),
		Debug:           v.GetBool("debug"),
		LogFormat:       v.GetString("log_format"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// loadDotEnv loads .env, then lets .env.local override it. Unreadable
// files are skipped.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// SaveConfig saves configuration to $HOME/.config/prisma-query and
// returns the written path.
func SaveConfig(cfg *Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return SaveConfigTo(filepath.Join(home, ".config", "prisma-query"), cfg)
}

// SaveConfigTo writes the configuration file into dir.
func SaveConfigTo(dir string, cfg *Config) (string, error) {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("provider", cfg.Provider)
	v.Set("provider_version", cfg.ProviderVersion)
	v.Set("catalog_path", cfg.CatalogPath)
	v.Set("schema_name", cfg.SchemaName)
	v.Set("log_format", cfg.LogFormat)
	// database_url stays in the environment

	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	configFile := filepath.Join(dir, fileName+".yaml")
	return configFile, v.WriteConfigAs(configFile)
}
