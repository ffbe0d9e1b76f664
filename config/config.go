package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Email    EmailConfig    `mapstructure:"email"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
	// AllowedOrigins may send credentialed cross-origin requests.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig MySQL connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// JWTConfig token signing settings. One secret signs both token kinds.
type JWTConfig struct {
	Secret           string        `mapstructure:"secret"`
	AccessTTLMinutes int           `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours  int           `mapstructure:"refresh_ttl_hours"`
	AccessTTL        time.Duration `mapstructure:"-"`
	RefreshTTL       time.Duration `mapstructure:"-"`
}

// RedisConfig category cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	CategoryTTLSeconds int    `mapstructure:"category_ttl_seconds"`
}

// AMQPConfig event publishing. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// MongoConfig deletion archive. An empty URI disables archiving.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// EmailConfig SMTP settings
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig logrus settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	// GlobalConfig is set by LoadConfig.
	GlobalConfig *Config
)

// LoadConfig loads configuration.
// Precedence: environment (LEDGER_*, .env included) > external file > embedded defaults.
func LoadConfig(configPath string) (*Config, error) {
	// a missing .env is fine
	if err := godotenv.Load(); err == nil {
		logrus.Info("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			logrus.Warnf("cannot read config file %s: %v", configPath, err)
		} else {
			logrus.Infof("merged config file %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/ledger")
		externalViper.AddConfigPath("$HOME/.ledger")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				logrus.Warnf("merge external config: %v", err)
			} else {
				logrus.Infof("merged config file %s", externalViper.ConfigFileUsed())
			}
		}
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()

	GlobalConfig = &cfg

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.JWT.AccessTTLMinutes <= 0 {
		c.JWT.AccessTTLMinutes = 60
	}
	if c.JWT.RefreshTTLHours <= 0 {
		c.JWT.RefreshTTLHours = 7 * 24
	}
	c.JWT.AccessTTL = time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
	c.JWT.RefreshTTL = time.Duration(c.JWT.RefreshTTLHours) * time.Hour
	if c.Redis.CategoryTTLSeconds <= 0 {
		c.Redis.CategoryTTLSeconds = 300
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "ledger.events"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "ledger_archive"
	}
}

// IsRelease reports whether gin runs in release mode.
func IsRelease() bool {
	return GlobalConfig != nil && GlobalConfig.Server.Mode == "release"
}

// PrintConfig logs the active configuration without secrets.
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"port":     GlobalConfig.Server.Port,
		"mode":     GlobalConfig.Server.Mode,
		"database": fmt.Sprintf("%s@%s:%s/%s", GlobalConfig.Database.Username, GlobalConfig.Database.Host, GlobalConfig.Database.Port, GlobalConfig.Database.DBName),
		"redis":    GlobalConfig.Redis.Addr != "",
		"amqp":     GlobalConfig.AMQP.URL != "",
		"mongo":    GlobalConfig.Mongo.URI != "",
		"email":    GlobalConfig.Email.Enabled,
	}).Info("active configuration")
}

// SafeErrorMessage hides internal error details from clients in release mode.
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if IsRelease() {
		return fallback
	}
	return err.Error()
}
