package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cets-data/cets-schema/internal/db"
)

// ServerConfig holds the registry HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// StorageConfig selects where published versions live. The filesystem archive
// is the default; registry deployments can point at Postgres instead.
type StorageConfig struct {
	Backend  string // "fs" or "postgres"
	Database db.Config
}

// Config carries everything the CLI and registry server need.
type Config struct {
	SchemaPath    string
	ArchiveDir    string
	OutputDir     string
	ModelsPackage string
	Server        ServerConfig
	Storage       StorageConfig
}

func Default() Config {
	return Config{
		SchemaPath:    "schema/cets.yaml",
		ArchiveDir:    "versions",
		OutputDir:     "gen",
		ModelsPackage: "cets",
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Storage: StorageConfig{
			Backend:  "fs",
			Database: db.DefaultConfig(),
		},
	}
}

// Load reads config.yaml from configPath (if present) and applies CETS_*
// environment overrides on top of the defaults.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("CETS") // map env vars like CETS_SCHEMA_PATH
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("schema.path")
	v.BindEnv("archive.dir")
	v.BindEnv("output.dir")
	v.BindEnv("models.package")
	v.BindEnv("server.addr")
	v.BindEnv("storage.backend")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// No config.yaml is fine, defaults + env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if v.IsSet("schema.path") {
		cfg.SchemaPath = v.GetString("schema.path")
	}
	if v.IsSet("archive.dir") {
		cfg.ArchiveDir = v.GetString("archive.dir")
	}
	if v.IsSet("output.dir") {
		cfg.OutputDir = v.GetString("output.dir")
	}
	if v.IsSet("models.package") {
		cfg.ModelsPackage = v.GetString("models.package")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("storage.backend") {
		cfg.Storage.Backend = v.GetString("storage.backend")
	}
	if v.IsSet("database.host") {
		cfg.Storage.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Storage.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Storage.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Storage.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Storage.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Storage.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
