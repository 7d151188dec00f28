package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      Server      `mapstructure:"server"`
	Database    Database    `mapstructure:"database"`
	Qdrant      Qdrant      `mapstructure:"qdrant"`
	Storage     Storage     `mapstructure:"storage"`
	Transcriber Transcriber `mapstructure:"transcriber"`
	Captioner   Captioner   `mapstructure:"captioner"`
	Summarizer  Summarizer  `mapstructure:"summarizer"`
	Embedding   Embedding   `mapstructure:"embedding"`
	Pipeline    Pipeline    `mapstructure:"pipeline"`
}

type Server struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	CORS CORS   `mapstructure:"cors"`
}

type CORS struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type Database struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type Qdrant struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

type Storage struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type Transcriber struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Captioner struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Summarizer struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Embedding struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}

type Pipeline struct {
	DataRoot             string        `mapstructure:"data_root"`
	ChunkSeconds         float64       `mapstructure:"chunk_seconds"`
	FrameIntervalSeconds float64       `mapstructure:"frame_interval_seconds"`
	DescribeWorkers      int           `mapstructure:"describe_workers"`
	IndexWorkers         int           `mapstructure:"index_workers"`
	StageTimeout         time.Duration `mapstructure:"stage_timeout"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/clipquery.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "video_scenes")
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "videos")
	v.SetDefault("transcriber.model", "whisper-1")
	v.SetDefault("transcriber.base_url", "https://api.openai.com/v1")
	v.SetDefault("captioner.model", "gpt-4o-mini")
	v.SetDefault("captioner.base_url", "https://api.openai.com/v1")
	v.SetDefault("summarizer.model", "gpt-4o-mini")
	v.SetDefault("summarizer.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("pipeline.data_root", "./data/sets")
	v.SetDefault("pipeline.chunk_seconds", 15.0)
	v.SetDefault("pipeline.frame_interval_seconds", 2.0)
	v.SetDefault("pipeline.describe_workers", 4)
	v.SetDefault("pipeline.index_workers", 4)
	v.SetDefault("pipeline.stage_timeout", 30*time.Minute)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("transcriber.api_key", "OPENAI_API_KEY")
	v.BindEnv("transcriber.base_url", "OPENAI_BASE_URL")
	v.BindEnv("captioner.api_key", "OPENAI_API_KEY")
	v.BindEnv("captioner.base_url", "OPENAI_BASE_URL")
	v.BindEnv("captioner.model", "CAPTIONER_MODEL")
	v.BindEnv("summarizer.api_key", "OPENAI_API_KEY")
	v.BindEnv("summarizer.base_url", "OPENAI_BASE_URL")
	v.BindEnv("summarizer.model", "SUMMARIZER_MODEL")
	v.BindEnv("embedding.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.base_url", "OPENAI_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values that would otherwise fail deep inside
// the pipeline.
func (c *Config) Validate() error {
	if c.Pipeline.ChunkSeconds <= 0 {
		return fmt.Errorf("pipeline.chunk_seconds must be positive, got %v", c.Pipeline.ChunkSeconds)
	}
	if c.Pipeline.FrameIntervalSeconds <= 0 {
		return fmt.Errorf("pipeline.frame_interval_seconds must be positive, got %v", c.Pipeline.FrameIntervalSeconds)
	}
	if c.Pipeline.DescribeWorkers < 1 {
		c.Pipeline.DescribeWorkers = 1
	}
	if c.Pipeline.IndexWorkers < 1 {
		c.Pipeline.IndexWorkers = 1
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}
