package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the working directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                 string `yaml:"port"`
	LogLevel             string `yaml:"logLevel"`
	DatabaseURL          string `yaml:"databaseURL"`
	ServiceTokenSecret   string `yaml:"serviceTokenSecret"`
	RedisAddr            string `yaml:"redisAddr"`
	RedisPassword        string `yaml:"redisPassword"`
	QueueStream          string `yaml:"queueStream"`
	QueueGroup           string `yaml:"queueGroup"`
	QueueConcurrency     int    `yaml:"queueConcurrency"`
	QueueMaxRetries      int    `yaml:"queueMaxRetries"`
	ProviderTimeoutSecs  int    `yaml:"providerTimeoutSeconds"`
	MaxOutputTokens      int    `yaml:"maxOutputTokens"`
	ReplenishLadder      []int  `yaml:"replenishLadder"`
	ReplenishConcurrency int    `yaml:"replenishConcurrency"`

	// Public widget rate limiting; 0 disables it.
	PublicRateLimit      int      `yaml:"publicRateLimit"`
	PublicRateWindowSecs int      `yaml:"publicRateWindowSeconds"`
	TrustedProxies       []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SERVICE_TOKEN_SECRET"); v != "" {
		cfg.ServiceTokenSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REPLENISH_QUEUE_STREAM"); v != "" {
		cfg.QueueStream = v
	}
	if v := os.Getenv("REPLENISH_QUEUE_GROUP"); v != "" {
		cfg.QueueGroup = v
	}
	if v := os.Getenv("REPLENISH_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueConcurrency = n
		}
	}
	if v := os.Getenv("REPLENISH_QUEUE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueMaxRetries = n
		}
	}
	if v := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProviderTimeoutSecs = n
		}
	}
	if v := os.Getenv("MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxOutputTokens = n
		}
	}
	if v := os.Getenv("REPLENISH_LADDER"); v != "" {
		if ladder, err := parseLadder(v); err == nil {
			cfg.ReplenishLadder = ladder
		}
	}
	if v := os.Getenv("REPLENISH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReplenishConcurrency = n
		}
	}
	if v := os.Getenv("PUBLIC_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PublicRateLimit = n
		}
	}
	if v := os.Getenv("PUBLIC_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PublicRateWindowSecs = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseLadder parses a comma-separated list of word-count targets.
func parseLadder(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ladder := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid word count %q: %w", p, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("word count must be > 0, got %d", n)
		}
		ladder = append(ladder, n)
	}
	if len(ladder) == 0 {
		return nil, errors.New("empty ladder")
	}
	return ladder, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.ServiceTokenSecret) == "" {
		return errors.New("config: serviceTokenSecret is required (set in config.yaml or SERVICE_TOKEN_SECRET)")
	}
	if cfg.QueueConcurrency < 0 {
		return errors.New("config: queueConcurrency must be >= 0")
	}
	if cfg.ProviderTimeoutSecs < 0 {
		return errors.New("config: providerTimeoutSeconds must be >= 0")
	}
	for _, n := range cfg.ReplenishLadder {
		if n <= 0 {
			return errors.New("config: replenishLadder entries must be > 0")
		}
	}
	if cfg.PublicRateLimit < 0 {
		return errors.New("config: publicRateLimit must be >= 0")
	}
	if cfg.PublicRateLimit > 0 && cfg.PublicRateWindowSecs <= 0 {
		return errors.New("config: publicRateWindowSeconds must be > 0 when publicRateLimit is set")
	}
	return nil
}
