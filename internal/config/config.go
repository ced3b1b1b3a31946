package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresjosehr/dollarspy/internal/common"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "DOLLARSPY"

// Defaults.
const (
	DefaultAPIHost       = "127.0.0.1"
	DefaultAPIPort       = 3847
	DefaultRegistryPath  = "./data/monitored-groups.json"
	DefaultSessionPath   = "./data/whatsapp-session.db"
	DefaultNotifyTimeout = 30 * time.Second
)

// Config is the resolved runtime configuration.
type Config struct {
	Notify   NotifyConfig
	API      APIConfig
	Registry RegistryConfig
	WhatsApp WhatsAppConfig
}

// APIConfig configures the control plane.
type APIConfig struct {
	Host string
	Port int
}

// BaseURL is the address the CLI uses to reach the control plane.
func (c APIConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// RegistryConfig configures the monitored group file.
type RegistryConfig struct {
	Path string
}

// WhatsAppConfig configures the chat transport session.
type WhatsAppConfig struct {
	SessionPath string
}

// NotifyConfig configures alert delivery.
type NotifyConfig struct {
	Endpoint   string
	Recipients []string
	Timeout    time.Duration
	Enabled    bool
}

// Configure registers defaults and environment bindings on v.
func Configure(v *viper.Viper) {
	v.SetDefault("api.host", DefaultAPIHost)
	v.SetDefault("api.port", DefaultAPIPort)
	v.SetDefault("registry.path", DefaultRegistryPath)
	v.SetDefault("whatsapp.session_path", DefaultSessionPath)
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.endpoint", "")
	v.SetDefault("notify.recipients", []string{})
	v.SetDefault("notify.timeout", DefaultNotifyTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API_PORT is the bare name operators already use.
	_ = v.BindEnv("api.port", EnvPrefix+"_API_PORT", "API_PORT")
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			Host: v.GetString("api.host"),
			Port: v.GetInt("api.port"),
		},
		Registry: RegistryConfig{
			Path: ExpandPath(v.GetString("registry.path")),
		},
		WhatsApp: WhatsAppConfig{
			SessionPath: ExpandPath(v.GetString("whatsapp.session_path")),
		},
		Notify: NotifyConfig{
			Enabled:    v.GetBool("notify.enabled"),
			Endpoint:   v.GetString("notify.endpoint"),
			Recipients: stringList(v.Get("notify.recipients")),
			Timeout:    v.GetDuration("notify.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.API.Host == "" {
		return fmt.Errorf("%w: api.host is empty", common.ErrInvalidConfig)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("%w: api.port %d out of range", common.ErrInvalidConfig, c.API.Port)
	}
	if strings.TrimSpace(c.Registry.Path) == "" {
		return fmt.Errorf("%w: registry.path is empty", common.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.WhatsApp.SessionPath) == "" {
		return fmt.Errorf("%w: whatsapp.session_path is empty", common.ErrInvalidConfig)
	}
	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = DefaultNotifyTimeout
	}
	return nil
}

// stringList accepts a YAML list or a comma separated environment value.
func stringList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
