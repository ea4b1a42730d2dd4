// Package config loads lift-controller settings.
//
// Precedence: built-in defaults, then an optional YAML file, then LIFT_*
// environment variables. The defaults reproduce the stock installation:
// listen on 0.0.0.0:5050, serve ./static, BCM pins 23/24/25 (relays) and
// 27/22 (limits) on gpiochip0, MQTT disabled.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/lift-controller/internal/gpio"
)

// Config is the root configuration structure.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// HTTPConfig contains the listener and static asset settings.
type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// GPIOConfig contains the chip name and BCM line offsets.
type GPIOConfig struct {
	Chip        string `yaml:"chip"`
	RelayUp     int    `yaml:"relay_up"`
	RelayStop   int    `yaml:"relay_stop"`
	RelayDown   int    `yaml:"relay_down"`
	LimitTop    int    `yaml:"limit_top"`
	LimitBottom int    `yaml:"limit_bottom"`
}

// WebSocketConfig contains realtime channel settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"` // seconds
	PongTimeout    int    `yaml:"pong_timeout"`  // seconds
	SendBuffer     int    `yaml:"send_buffer"`
}

// MQTTConfig contains the optional state mirror settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty disables MQTT
	ClientID string `yaml:"client_id"`
}

// Default returns a Config with the stock settings.
func Default() Config {
	p := gpio.DefaultPins()
	return Config{
		HTTP: HTTPConfig{
			Addr:      "0.0.0.0:5050",
			StaticDir: "static",
		},
		GPIO: GPIOConfig{
			Chip:        "gpiochip0",
			RelayUp:     p.RelayUp,
			RelayStop:   p.RelayStop,
			RelayDown:   p.RelayDown,
			LimitTop:    p.LimitTop,
			LimitBottom: p.LimitBottom,
		},
		WebSocket: WebSocketConfig{
			Path:           "/socket",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
			SendBuffer:     64,
		},
		MQTT: MQTTConfig{
			ClientID: "lift-controller",
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnvOverrides applies LIFT_SECTION_KEY environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFT_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LIFT_STATIC_DIR"); v != "" {
		cfg.HTTP.StaticDir = v
	}
	if v := os.Getenv("LIFT_GPIO_CHIP"); v != "" {
		cfg.GPIO.Chip = v
	}
	if v := os.Getenv("LIFT_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []string

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr is required")
	}
	if c.HTTP.StaticDir == "" {
		errs = append(errs, "http.static_dir is required")
	}
	if c.GPIO.Chip == "" {
		errs = append(errs, "gpio.chip is required")
	}
	if err := c.Pins().Validate(); err != nil {
		errs = append(errs, "gpio: "+err.Error())
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongTimeout <= 0 {
		errs = append(errs, "websocket.ping_interval and pong_timeout must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		errs = append(errs, "websocket.send_buffer must be positive")
	}
	if c.MQTT.Broker != "" && c.MQTT.ClientID == "" {
		errs = append(errs, "mqtt.client_id is required when mqtt.broker is set")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Pins returns the GPIO line assignments.
func (c Config) Pins() gpio.Pins {
	return gpio.Pins{
		RelayUp:     c.GPIO.RelayUp,
		RelayStop:   c.GPIO.RelayStop,
		RelayDown:   c.GPIO.RelayDown,
		LimitTop:    c.GPIO.LimitTop,
		LimitBottom: c.GPIO.LimitBottom,
	}
}

// PingInterval returns the WebSocket ping interval.
func (c Config) PingInterval() time.Duration {
	return time.Duration(c.WebSocket.PingInterval) * time.Second
}

// PongTimeout returns how long to wait for a pong after a ping.
func (c Config) PongTimeout() time.Duration {
	return time.Duration(c.WebSocket.PongTimeout) * time.Second
}
