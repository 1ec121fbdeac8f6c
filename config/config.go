package config

import (
	"github.com/jinzhu/configor"
)

// Config - Application configuration
type Config struct {
	Server struct {
		Address        string `yaml:"address" default:":8080" env:"SERVER_ADDRESS"`
		RatePerMinute  int    `yaml:"rate_per_minute" default:"10" env:"SERVER_RATE_PER_MINUTE"`
		RateBurst      int    `yaml:"rate_burst" default:"5" env:"SERVER_RATE_BURST"`
		AllowedOrigins string `yaml:"allowed_origins" default:"'*'" env:"SERVER_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Fetch struct {
		ConnectTimeout int    `yaml:"connect_timeout" default:"10"` // Timeout in seconds
		ReadTimeout    int    `yaml:"read_timeout" default:"30"`    // Timeout in seconds
		UserAgent      string `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
		MaxRedirects   int    `yaml:"max_redirects" default:"3"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes" default:"10485760"` // 10 MB
		MaxRetries     int    `yaml:"max_retries" default:"3"`
		RetryBackoff   int    `yaml:"retry_backoff" default:"1"` // Base delay in seconds, grows linearly per attempt
	} `yaml:"fetch"`

	Scan struct {
		ProbeDeadline int `yaml:"probe_deadline" default:"45"` // Per-probe deadline in seconds
		PortTimeout   int `yaml:"port_timeout" default:"2"`    // Per-port connect timeout in seconds
		MaxSubdomains int `yaml:"max_subdomains" default:"100"`
		DNSTimeout    int `yaml:"dns_timeout" default:"5"` // Per-query timeout in seconds
	} `yaml:"scan"`
}

// LoadConfig - Load configuration file
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	loader := configor.New(&configor.Config{
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	})

	var err error
	if path != "" {
		err = loader.Load(cfg, path)
	} else {
		err = loader.Load(cfg)
	}
	return cfg, err
}
