package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host                 string
	Port                 int
	ReadTimeout          int
	WriteTimeout         int
	BodyLimit            int
	MaxRequestsPerMinute int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TTLMinutes int
}

type PipelineConfig struct {
	PreviewRows    int
	MaxUploadBytes int
	RunHistoryMax  int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ticket-validator")

	viper.SetEnvPrefix("TICKET_VALIDATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 52428800)
	viper.SetDefault("server.maxRequestsPerMinute", 60)

	viper.SetDefault("sqlite.path", "./data/runs.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.ttlMinutes", 240)

	viper.SetDefault("pipeline.previewRows", 20)
	viper.SetDefault("pipeline.maxUploadBytes", 26214400)
	viper.SetDefault("pipeline.runHistoryMax", 50)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
