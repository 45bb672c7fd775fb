package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/backend/config"
	ConfigFileName    = "backend.yml"

	sourceDefault     = "default"
	sourceFile        = "file"
	sourceEnvironment = "environment"
)

// ValidSessionStores lists the accepted session_store values
var ValidSessionStores = []string{"gorm", "redis", "memory"}

// ValidLogLevels lists the accepted log_level values
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// BackendConfig holds all backend configuration settings
type BackendConfig struct {
	// SessionTTL is the absolute session lifetime in seconds
	SessionTTL int `yaml:"session_ttl" json:"session_ttl"`

	// SessionIdleTimeout expires unused sessions after this many seconds; 0 disables it
	SessionIdleTimeout int `yaml:"session_idle_timeout" json:"session_idle_timeout"`

	// SessionStore selects the session backend: gorm, redis or memory
	SessionStore string `yaml:"session_store" json:"session_store"`

	// SessionPurgeInterval is the number of seconds between expired session sweeps
	SessionPurgeInterval int `yaml:"session_purge_interval" json:"session_purge_interval"`

	// RedisURL is the redis:// URL used when SessionStore is redis
	RedisURL string `yaml:"redis_url" json:"redis_url"`

	// LoginRateLimit is the sustained login attempts per second allowed per client IP
	LoginRateLimit float64 `yaml:"login_rate_limit" json:"login_rate_limit"`

	// LoginRateBurst is the login attempt burst allowed per client IP
	LoginRateBurst int `yaml:"login_rate_burst" json:"login_rate_burst"`

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// SeedUserEnabled ensures the seed user exists at startup
	SeedUserEnabled bool `yaml:"seed_user_enabled" json:"seed_user_enabled"`

	SeedUserEmail    string `yaml:"seed_user_email" json:"seed_user_email"`
	SeedUserName     string `yaml:"seed_user_name" json:"seed_user_name"`
	SeedUserPassword string `yaml:"seed_user_password" json:"-"`

	// LogLevel is one of ValidLogLevels
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFile is the rotating log file; empty logs to the console only
	LogFile string `yaml:"log_file" json:"log_file"`

	// AuditEnabled writes the audit trail for logins and mutations
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// fileConfig mirrors BackendConfig with pointers so that values explicitly set
// to zero in the file are told apart from absent ones
type fileConfig struct {
	SessionTTL           *int     `yaml:"session_ttl"`
	SessionIdleTimeout   *int     `yaml:"session_idle_timeout"`
	SessionStore         *string  `yaml:"session_store"`
	SessionPurgeInterval *int     `yaml:"session_purge_interval"`
	RedisURL             *string  `yaml:"redis_url"`
	LoginRateLimit       *float64 `yaml:"login_rate_limit"`
	LoginRateBurst       *int     `yaml:"login_rate_burst"`
	TrustedProxies       []string `yaml:"trusted_proxies"`
	SeedUserEnabled      *bool    `yaml:"seed_user_enabled"`
	SeedUserEmail        *string  `yaml:"seed_user_email"`
	SeedUserName         *string  `yaml:"seed_user_name"`
	SeedUserPassword     *string  `yaml:"seed_user_password"`
	LogLevel             *string  `yaml:"log_level"`
	LogFile              *string  `yaml:"log_file"`
	AuditEnabled         *bool    `yaml:"audit_enabled"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *BackendConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *BackendConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment and returns it
func Reload() (*BackendConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

// newDefault returns a config with default values
func newDefault() *BackendConfig {
	return &BackendConfig{
		SessionTTL:           28800,
		SessionIdleTimeout:   1800,
		SessionStore:         "gorm",
		SessionPurgeInterval: 300,
		LoginRateLimit:       1,
		LoginRateBurst:       5,
		TrustedProxies:       []string{},
		SeedUserEnabled:      true,
		SeedUserEmail:        "test1@test.com",
		SeedUserName:         "test1",
		SeedUserPassword:     "test1",
		LogLevel:             "info",
		LogFile:              "backend.log",
		AuditEnabled:         true,
		sources:              make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*BackendConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = sourceDefault
	}

	configPath := os.Getenv("BACKEND_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&file)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"session_ttl", "session_idle_timeout", "session_store",
		"session_purge_interval", "redis_url", "login_rate_limit",
		"login_rate_burst", "trusted_proxies", "seed_user_enabled",
		"seed_user_email", "seed_user_name", "seed_user_password",
		"log_level", "log_file", "audit_enabled",
	}
}

func setFromFile[T any](c *BackendConfig, name string, dst *T, src *T) {
	if src != nil {
		*dst = *src
		c.sources[name] = sourceFile
	}
}

func (c *BackendConfig) applyFileConfig(file *fileConfig) {
	setFromFile(c, "session_ttl", &c.SessionTTL, file.SessionTTL)
	setFromFile(c, "session_idle_timeout", &c.SessionIdleTimeout, file.SessionIdleTimeout)
	setFromFile(c, "session_store", &c.SessionStore, file.SessionStore)
	setFromFile(c, "session_purge_interval", &c.SessionPurgeInterval, file.SessionPurgeInterval)
	setFromFile(c, "redis_url", &c.RedisURL, file.RedisURL)
	setFromFile(c, "login_rate_limit", &c.LoginRateLimit, file.LoginRateLimit)
	setFromFile(c, "login_rate_burst", &c.LoginRateBurst, file.LoginRateBurst)
	setFromFile(c, "seed_user_enabled", &c.SeedUserEnabled, file.SeedUserEnabled)
	setFromFile(c, "seed_user_email", &c.SeedUserEmail, file.SeedUserEmail)
	setFromFile(c, "seed_user_name", &c.SeedUserName, file.SeedUserName)
	setFromFile(c, "seed_user_password", &c.SeedUserPassword, file.SeedUserPassword)
	setFromFile(c, "log_level", &c.LogLevel, file.LogLevel)
	setFromFile(c, "log_file", &c.LogFile, file.LogFile)
	setFromFile(c, "audit_enabled", &c.AuditEnabled, file.AuditEnabled)
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = sourceFile
	}
}

func (c *BackendConfig) applyEnvConfig() error {
	for _, name := range attributeNames() {
		envName := "BACKEND_" + strings.ToUpper(name)
		val, ok := os.LookupEnv(envName)
		if !ok || val == "" {
			continue
		}
		if err := c.set(name, val); err != nil {
			return fmt.Errorf("invalid %s: %w", envName, err)
		}
		c.sources[name] = sourceEnvironment
	}
	return nil
}

// set assigns an attribute from its string form
func (c *BackendConfig) set(name, val string) error {
	var err error
	switch name {
	case "session_ttl":
		c.SessionTTL, err = strconv.Atoi(val)
	case "session_idle_timeout":
		c.SessionIdleTimeout, err = strconv.Atoi(val)
	case "session_store":
		c.SessionStore = val
	case "session_purge_interval":
		c.SessionPurgeInterval, err = strconv.Atoi(val)
	case "redis_url":
		c.RedisURL = val
	case "login_rate_limit":
		c.LoginRateLimit, err = strconv.ParseFloat(val, 64)
	case "login_rate_burst":
		c.LoginRateBurst, err = strconv.Atoi(val)
	case "trusted_proxies":
		c.TrustedProxies = splitAndTrim(val)
	case "seed_user_enabled":
		c.SeedUserEnabled, err = strconv.ParseBool(val)
	case "seed_user_email":
		c.SeedUserEmail = val
	case "seed_user_name":
		c.SeedUserName = val
	case "seed_user_password":
		c.SeedUserPassword = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_file":
		c.LogFile = val
	case "audit_enabled":
		c.AuditEnabled, err = strconv.ParseBool(val)
	default:
		return fmt.Errorf("unknown attribute %q", name)
	}
	return err
}

// ConfigFilePath returns the path to the config file
func (c *BackendConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *BackendConfig) Source(name string) string {
	if c.sources == nil {
		return sourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return sourceDefault
}

// SessionTTLDuration returns the absolute session lifetime as a duration
func (c *BackendConfig) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// SessionIdleDuration returns the idle session timeout as a duration
func (c *BackendConfig) SessionIdleDuration() time.Duration {
	return time.Duration(c.SessionIdleTimeout) * time.Second
}

// SessionPurgeDuration returns the expired session sweep interval as a duration
func (c *BackendConfig) SessionPurgeDuration() time.Duration {
	return time.Duration(c.SessionPurgeInterval) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *BackendConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if parsed := net.ParseIP(cidr); parsed != nil && parsed.Equal(parsedIP) {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *BackendConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if !contains(ValidSessionStores, c.SessionStore) {
		return fmt.Errorf("invalid session_store: %s", c.SessionStore)
	}
	if c.SessionStore == "redis" && c.RedisURL == "" {
		return fmt.Errorf("redis_url is required when session_store is redis")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive: %d", c.SessionTTL)
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("session_idle_timeout must not be negative: %d", c.SessionIdleTimeout)
	}
	if c.SessionPurgeInterval < 0 {
		return fmt.Errorf("session_purge_interval must not be negative: %d", c.SessionPurgeInterval)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("login_rate_limit and login_rate_burst must be positive")
	}
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources.
// Secrets are masked.
func (c *BackendConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "session_ttl", Value: strconv.Itoa(c.SessionTTL), Source: c.Source("session_ttl")},
		{Name: "session_idle_timeout", Value: strconv.Itoa(c.SessionIdleTimeout), Source: c.Source("session_idle_timeout")},
		{Name: "session_store", Value: c.SessionStore, Source: c.Source("session_store")},
		{Name: "session_purge_interval", Value: strconv.Itoa(c.SessionPurgeInterval), Source: c.Source("session_purge_interval")},
		{Name: "redis_url", Value: mask(c.RedisURL), Source: c.Source("redis_url")},
		{Name: "login_rate_limit", Value: strconv.FormatFloat(c.LoginRateLimit, 'g', -1, 64), Source: c.Source("login_rate_limit")},
		{Name: "login_rate_burst", Value: strconv.Itoa(c.LoginRateBurst), Source: c.Source("login_rate_burst")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "seed_user_enabled", Value: strconv.FormatBool(c.SeedUserEnabled), Source: c.Source("seed_user_enabled")},
		{Name: "seed_user_email", Value: c.SeedUserEmail, Source: c.Source("seed_user_email")},
		{Name: "seed_user_name", Value: c.SeedUserName, Source: c.Source("seed_user_name")},
		{Name: "seed_user_password", Value: mask(c.SeedUserPassword), Source: c.Source("seed_user_password")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_file", Value: c.LogFile, Source: c.Source("log_file")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *BackendConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *BackendConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
