package config

import "fmt"

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Auth       AuthConfig                `yaml:"auth"`
	Security   SecurityConfig            `yaml:"security"`
	Logging    LoggingConfig             `yaml:"logging"`
	Deadlines  DeadlinesConfig           `yaml:"deadlines"`
	Validation map[string]CollectionRule `yaml:"validation"`
}

// ServerConfig holds http and storage settings. Engine selects the
// transport: "nethttp" (default) or "fasthttp".
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	Engine  string    `yaml:"engine"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig bounds session lifetime and sign-in attempts. A bootstrap
// admin is created at startup when no profiles exist yet.
type AuthConfig struct {
	SessionTTLMinutes int     `yaml:"session_ttl_minutes"`
	SignInRPS         float64 `yaml:"signin_rps"`
	SignInBurst       int     `yaml:"signin_burst"`
	Bootstrap         struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		FullName string `yaml:"full_name"`
	} `yaml:"bootstrap_admin"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DeadlinesConfig configures the compliance deadline scheduler.
type DeadlinesConfig struct {
	Enabled bool `yaml:"enabled"`
	// ScanIntervalMinutes is how often due/overdue status is refreshed.
	ScanIntervalMinutes int `yaml:"scan_interval_minutes"`
}

// CollectionRule is the per-collection validation block.
type CollectionRule struct {
	Required []string            `yaml:"required"`
	Types    map[string]string   `yaml:"types"`
	MaxLen   map[string]int      `yaml:"max_len"`
	Enums    map[string][]string `yaml:"enums"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}
