package config

import (
	"strings"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"` // mysql or postgres
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT"`
	DBSSLMode              string `env:"DB_SSLMODE" envDefault:"disable"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	AutoMigrate            bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket     string `env:"STORAGE_BUCKET"`
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS_FILE"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	AllowedOriginSuffixes []string `env:"ALLOWED_ORIGIN_SUFFIXES" envSeparator:"," envDefault:"vercel.app"`
	RealtimeBuffer        int      `env:"REALTIME_BUFFER" envDefault:"32"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if cfg.DBPort == "" {
		if cfg.DBDriver == "postgres" {
			cfg.DBPort = "5432"
		} else {
			cfg.DBPort = "3306"
		}
	}
	return &cfg, nil
}
