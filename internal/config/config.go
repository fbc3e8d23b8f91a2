// Package config loads cartctl settings from YAML with CART_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Handoff modes.
const (
	HandoffPrint   = "print"
	HandoffBrowser = "browser"
)

// DefaultPhone is the storefront's WhatsApp number.
const DefaultPhone = "5535998493844"

// Config is the full cartctl configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Handoff  HandoffConfig  `yaml:"handoff"`
	Message  MessageConfig  `yaml:"message"`
	Capture  CaptureConfig  `yaml:"capture"`
	Rules    RulesConfig    `yaml:"rules"`
	Logging  LoggingConfig  `yaml:"logging"`
	Activity ActivityConfig `yaml:"activity"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

// StorageConfig selects the persistence backend and the keys used in it.
type StorageConfig struct {
	Driver     string `yaml:"driver"` // sqlite (default), redis, memory
	Path       string `yaml:"path"`   // sqlite file
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	RedisPass  string `yaml:"redis_password"`
	Prefix     string `yaml:"prefix"`
	Origin     string `yaml:"origin"`
	CartKey    string `yaml:"cart_key"`
	OptionsKey string `yaml:"options_key"`
}

// HandoffConfig configures the messaging link and how it is opened.
type HandoffConfig struct {
	Phone   string `yaml:"phone"`
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"` // print, browser
}

// MessageConfig picks the order message template.
type MessageConfig struct {
	Template string `yaml:"template"` // default, plain
}

// CaptureConfig configures the optional cart screenshot.
type CaptureConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PageURL     string `yaml:"page_url"`
	Selector    string `yaml:"selector"`
	ArtifactDir string `yaml:"artifact_dir"`
	Timeout     string `yaml:"timeout"`
	ChromeBin   string `yaml:"chrome_bin"`
	ControlURL  string `yaml:"control_url"`
	Headless    bool   `yaml:"headless"`
}

// RulesConfig holds per-field option validation expressions.
type RulesConfig struct {
	Engine          string `yaml:"engine"` // expr, cel, js
	Mode            string `yaml:"mode"`   // warn, reject
	PaymentMethod   string `yaml:"payment_method"`
	Fulfillment     string `yaml:"fulfillment"`
	DeliveryAddress string `yaml:"delivery_address"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// ActivityConfig configures activity events.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

// CheckoutConfig configures post-handoff behaviour.
type CheckoutConfig struct {
	ResetOptions bool `yaml:"reset_options"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       "data/cart.db",
			RedisAddr:  "localhost:6379",
			Prefix:     "cart:",
			Origin:     "local",
			CartKey:    "gmAttelierCart",
			OptionsKey: "gmAttelierCartOptions",
		},
		Handoff: HandoffConfig{
			Phone:   DefaultPhone,
			BaseURL: "https://wa.me/",
			Mode:    HandoffPrint,
		},
		Message: MessageConfig{Template: "default"},
		Capture: CaptureConfig{
			Selector:    "#cart-panel",
			ArtifactDir: "captures",
			Timeout:     "15s",
			Headless:    true,
		},
		Rules: RulesConfig{
			Engine: "expr",
			Mode:   "warn",
		},
		Logging: LoggingConfig{Level: "info"},
		Activity: ActivityConfig{
			Enabled: true,
			Channel: "cart",
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated fields and durations.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Handoff.Mode {
	case HandoffPrint, HandoffBrowser:
	default:
		return fmt.Errorf("config: unknown handoff mode %q", c.Handoff.Mode)
	}
	if strings.TrimSpace(c.Storage.Origin) == "" {
		return fmt.Errorf("config: storage origin is required")
	}
	if _, err := c.CaptureTimeout(); err != nil {
		return err
	}
	return nil
}

// CaptureTimeout parses Capture.Timeout. Empty means zero.
func (c *Config) CaptureTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Capture.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: capture timeout %q: %w", raw, err)
	}
	return d, nil
}

// RuleExpressions returns the configured rules keyed by option field name,
// skipping blank ones.
func (c *Config) RuleExpressions() map[string]string {
	out := map[string]string{}
	add := func(field, expr string) {
		if strings.TrimSpace(expr) != "" {
			out[field] = expr
		}
	}
	add("paymentMethod", c.Rules.PaymentMethod)
	add("fulfillment", c.Rules.Fulfillment)
	add("deliveryAddress", c.Rules.DeliveryAddress)
	return out
}

func (c *Config) applyEnvOverrides() error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) error {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = parsed
		return nil
	}

	setString("CART_STORAGE_DRIVER", &c.Storage.Driver)
	setString("CART_STORAGE_PATH", &c.Storage.Path)
	setString("CART_REDIS_ADDR", &c.Storage.RedisAddr)
	setString("CART_REDIS_PASSWORD", &c.Storage.RedisPass)
	setString("CART_ORIGIN", &c.Storage.Origin)
	setString("CART_PHONE", &c.Handoff.Phone)
	setString("CART_HANDOFF_BASE_URL", &c.Handoff.BaseURL)
	setString("CART_HANDOFF_MODE", &c.Handoff.Mode)
	setString("CART_TEMPLATE", &c.Message.Template)
	setString("CART_CAPTURE_PAGE_URL", &c.Capture.PageURL)
	setString("CART_CHROME_BIN", &c.Capture.ChromeBin)
	setString("CART_RULES_ENGINE", &c.Rules.Engine)
	setString("CART_RULES_MODE", &c.Rules.Mode)
	setString("CART_LOG_LEVEL", &c.Logging.Level)

	if v, ok := os.LookupEnv("CART_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CART_REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = db
	}
	if err := setBool("CART_CAPTURE_ENABLED", &c.Capture.Enabled); err != nil {
		return err
	}
	if err := setBool("CART_ACTIVITY_ENABLED", &c.Activity.Enabled); err != nil {
		return err
	}
	return setBool("CART_RESET_OPTIONS", &c.Checkout.ResetOptions)
}
