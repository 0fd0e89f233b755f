// Package config loads sqlkit settings from config files, .env files and
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/sqlkit/runtime/client"
)

// AppFs is the filesystem config and .env files are read from
var AppFs = afero.NewOsFs()

const (
	configName = ".sqlkit"
	envPrefix  = "SQLKIT"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL   string
	MaxBindParams int
	MaxOpenConns  int
	// StatementCacheSize of zero keeps the client default; negative disables
	StatementCacheSize int
	ForeignKeys        bool
	BusyTimeout        time.Duration
	Debug              bool
}

// Load loads configuration from various sources. Environment variables
// override .env.local, which overrides .env; all of them override the
// config file.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := loadEnvFile(".env", false); err != nil {
		return nil, err
	}
	// .env.local wins over .env but not over the real environment
	if err := loadEnvFile(".env.local", true); err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:        v.GetString("database_url"),
		MaxBindParams:      v.GetInt("max_bind_params"),
		MaxOpenConns:       v.GetInt("max_open_conns"),
		StatementCacheSize: v.GetInt("statement_cache_size"),
		ForeignKeys:        v.GetBool("foreign_keys"),
		BusyTimeout:        v.GetDuration("busy_timeout"),
		Debug:              v.GetBool("debug"),
	}, nil
}

func newViper() (*viper.Viper, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "sqlkit"))

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	v.SetDefault("database_url", "sqlkit.db")
	v.SetDefault("max_bind_params", 0)
	v.SetDefault("max_open_conns", 0)
	v.SetDefault("statement_cache_size", 0)
	v.SetDefault("foreign_keys", true)
	v.SetDefault("busy_timeout", 5*time.Second)
	v.SetDefault("debug", false)
	return v, nil
}

// loadEnvFile exports the variables of name. Variables already in the
// environment are kept, unless they came from an earlier file and override
// is set.
func loadEnvFile(name string, override bool) error {
	f, err := AppFs.Open(name)
	if err != nil {
		// missing files are fine
		return nil
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set && !(override && loadedFromFile[key]) {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		loadedFromFile[key] = true
	}
	return nil
}

// loadedFromFile records variables exported by loadEnvFile
var loadedFromFile = map[string]bool{}

// DSN composes the go-sqlite3 data source name
func (c *Config) DSN() string {
	dsn := c.DatabaseURL
	params := []string{}
	if !strings.Contains(dsn, "_foreign_keys=") && !strings.Contains(dsn, "_fk=") {
		if c.ForeignKeys {
			params = append(params, "_foreign_keys=on")
		} else {
			params = append(params, "_foreign_keys=off")
		}
	}
	if c.BusyTimeout > 0 && !strings.Contains(dsn, "_busy_timeout=") && !strings.Contains(dsn, "_timeout=") {
		params = append(params, "_busy_timeout="+strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10))
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Options returns the client options described by the configuration
func (c *Config) Options() client.Options {
	return client.Options{
		DSN:                c.DSN(),
		MaxBindParams:      c.MaxBindParams,
		MaxOpenConns:       c.MaxOpenConns,
		StatementCacheSize: c.StatementCacheSize,
	}
}

// Save writes cfg to a .sqlkit.yaml in dir
func Save(cfg *Config, dir string) (string, error) {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("max_bind_params", cfg.MaxBindParams)
	v.Set("max_open_conns", cfg.MaxOpenConns)
	v.Set("statement_cache_size", cfg.StatementCacheSize)
	v.Set("foreign_keys", cfg.ForeignKeys)
	v.Set("busy_timeout", cfg.BusyTimeout.String())
	v.Set("debug", cfg.Debug)

	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, configName+".yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
