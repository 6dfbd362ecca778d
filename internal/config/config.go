// Package config loads runtime settings from the environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"

	"cellar/internal/awsconf"
	"cellar/internal/repositories"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the server and cellarctl.
type Config struct {
	AppPort string

	StoreDriver    string
	DatabaseDSN    string
	BadgerPath     string
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string
	DynamoEndpoint string
	CellarTable    string
	PicklistTable  string

	RabbitMQURL string

	WhitelistedOrigins []string

	LogLevel  string
	LogFormat string

	BackupBucket string
	S3Endpoint   string
}

// New returns a viper instance with every default set and environment
// variables bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("STORE_DRIVER", repositories.DriverMemory)
	v.SetDefault("DATABASE_DSN", "cellar.db")
	v.SetDefault("BADGER_PATH", "")
	v.SetDefault("AWS_REGION", awsconf.DefaultRegion)
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("DYNAMODB_ENDPOINT", "")
	v.SetDefault("CELLAR_TABLE", "Cellar")
	v.SetDefault("PICKLIST_TABLE", "CellarPicklists")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("WHITELISTED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("BACKUP_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.AutomaticEnv() // Load environment variables
	return v
}

// Load reads the configuration. A non-empty file is merged under the
// environment.
func Load(file string) (*Config, error) {
	v := New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:            v.GetString("APP_PORT"),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		BadgerPath:         v.GetString("BADGER_PATH"),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSAccessKey:       v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:       v.GetString("AWS_SECRET_ACCESS_KEY"),
		DynamoEndpoint:     v.GetString("DYNAMODB_ENDPOINT"),
		CellarTable:        v.GetString("CELLAR_TABLE"),
		PicklistTable:      v.GetString("PICKLIST_TABLE"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		WhitelistedOrigins: splitList(v.GetString("WHITELISTED_ORIGINS")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		BackupBucket:       v.GetString("BACKUP_BUCKET"),
		S3Endpoint:         v.GetString("S3_ENDPOINT"),
	}
	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	switch cfg.StoreDriver {
	case repositories.DriverMemory, repositories.DriverSQLite, repositories.DriverPostgres,
		repositories.DriverBadger, repositories.DriverDynamoDB:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// StoreOptions maps the configuration onto repository options.
func (c *Config) StoreOptions() repositories.Options {
	return repositories.Options{
		Driver:         c.StoreDriver,
		DSN:            c.DatabaseDSN,
		BadgerPath:     c.BadgerPath,
		AWS:            c.AWSOptions(),
		DynamoEndpoint: c.DynamoEndpoint,
		CellarTable:    c.CellarTable,
		PicklistTable:  c.PicklistTable,
	}
}

// AWSOptions returns the explicit AWS settings.
func (c *Config) AWSOptions() awsconf.Options {
	return awsconf.Options{
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKey,
		SecretAccessKey: c.AWSSecretKey,
	}
}

// splitList splits a comma or whitespace separated list.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
