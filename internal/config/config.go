package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string          `yaml:"addr"`
	JWTSecret     string          `yaml:"jwt_secret"`
	APITimeout    time.Duration   `yaml:"timeout"`
	DatabasePath  string          `yaml:"database_path"`
	TokenDuration time.Duration   `yaml:"token_duration"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
	GitHub        GitHubConfig    `yaml:"github"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type GitHubConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("REPCHAIN_ADDR", ":8080"),
		JWTSecret:     getEnv("REPCHAIN_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("REPCHAIN_DATABASE_PATH", "repchain.db"),
		TokenDuration: 7 * 24 * time.Hour,
		Scheduler: SchedulerConfig{
			Interval: time.Hour,
		},
		GitHub: GitHubConfig{
			BaseURL: getEnv("REPCHAIN_GITHUB_BASE_URL", "https://api.github.com"),
			Token:   os.Getenv("REPCHAIN_GITHUB_TOKEN"),
			Timeout: 10 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		// Durations come in as strings ("15m"), which yaml.v3 cannot decode
		// into time.Duration directly, so the file goes through a shadow
		// struct first.
		var raw rawConfig
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if err := raw.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

type rawConfig struct {
	Addr          string `yaml:"addr"`
	JWTSecret     string `yaml:"jwt_secret"`
	APITimeout    string `yaml:"timeout"`
	DatabasePath  string `yaml:"database_path"`
	TokenDuration string `yaml:"token_duration"`
	Scheduler     struct {
		Interval string `yaml:"interval"`
	} `yaml:"scheduler"`
	GitHub struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		Timeout string `yaml:"timeout"`
	} `yaml:"github"`
}

// apply overlays the file values onto cfg, leaving defaults in place for
// fields the file omits.
func (r *rawConfig) apply(cfg *Config) error {
	if r.Addr != "" {
		cfg.Addr = r.Addr
	}
	if r.JWTSecret != "" {
		cfg.JWTSecret = r.JWTSecret
	}
	if r.DatabasePath != "" {
		cfg.DatabasePath = r.DatabasePath
	}
	if r.GitHub.BaseURL != "" {
		cfg.GitHub.BaseURL = r.GitHub.BaseURL
	}
	if r.GitHub.Token != "" {
		cfg.GitHub.Token = r.GitHub.Token
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{r.APITimeout, &cfg.APITimeout},
		{r.TokenDuration, &cfg.TokenDuration},
		{r.Scheduler.Interval, &cfg.Scheduler.Interval},
		{r.GitHub.Timeout, &cfg.GitHub.Timeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = v
	}

	return nil
}

// Validate checks the loaded config and fills in defaults for nested
// sections that were zeroed by a partial YAML overlay.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.JWTSecret == "supersecretkey" && os.Getenv("REPCHAIN_ENV") != "development" {
		return fmt.Errorf("jwt_secret must be changed outside development")
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = 7 * 24 * time.Hour
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = time.Hour
	}
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}
	if c.GitHub.Timeout <= 0 {
		c.GitHub.Timeout = 10 * time.Second
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
