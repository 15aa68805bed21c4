package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string
	DBDriver        string // "sqlite" or "mongo"
	DatabaseDSN     string // sqlite DSN or mongo connection URI
	MongoDatabase   string
	JWTSecret       string
	MaxRequestBytes int64
	FileStoreDir    string
}

// Load reads configuration from HEALTHVAULT_* environment variables, with an
// optional healthvault.yaml alongside the binary taking lower precedence.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("HEALTHVAULT")
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:healthvault.db?cache=shared&mode=rwc")
	v.SetDefault("mongo_database", "healthvault")
	v.SetDefault("jwt_secret", "dev-secret-change")
	v.SetDefault("max_request_bytes", int64(1<<20))
	v.SetDefault("filestore_dir", "files")

	v.SetConfigName("healthvault")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // config file is optional

	cfg := Config{
		HTTPAddr:        v.GetString("http_addr"),
		DBDriver:        v.GetString("db_driver"),
		DatabaseDSN:     v.GetString("db_dsn"),
		MongoDatabase:   v.GetString("mongo_database"),
		JWTSecret:       v.GetString("jwt_secret"),
		MaxRequestBytes: v.GetInt64("max_request_bytes"),
		FileStoreDir:    v.GetString("filestore_dir"),
	}
	if cfg.JWTSecret == "dev-secret-change" {
		log.Println("WARNING: using development JWT secret; set HEALTHVAULT_JWT_SECRET")
	}
	return cfg
}
