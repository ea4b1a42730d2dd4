package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultMatchesStockInstall(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Addr != "0.0.0.0:5050" {
		t.Errorf("HTTP.Addr: got %q, want 0.0.0.0:5050", cfg.HTTP.Addr)
	}
	if cfg.HTTP.StaticDir != "static" {
		t.Errorf("HTTP.StaticDir: got %q, want static", cfg.HTTP.StaticDir)
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("MQTT.Broker: got %q, want disabled", cfg.MQTT.Broker)
	}

	p := cfg.Pins()
	got := []int{p.RelayUp, p.RelayStop, p.RelayDown, p.LimitTop, p.LimitBottom}
	want := []int{23, 24, 25, 27, 22}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pins: got %v, want %v", got, want)
			break
		}
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
http:
  addr: "127.0.0.1:8080"
gpio:
  relay_up: 5
mqtt:
  broker: "tcp://192.168.1.200:1883"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Addr != "127.0.0.1:8080" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.StaticDir != "static" {
		t.Errorf("HTTP.StaticDir: default lost, got %q", cfg.HTTP.StaticDir)
	}
	if cfg.GPIO.RelayUp != 5 {
		t.Errorf("GPIO.RelayUp: got %d, want 5", cfg.GPIO.RelayUp)
	}
	if cfg.GPIO.RelayStop != 24 {
		t.Errorf("GPIO.RelayStop: default lost, got %d", cfg.GPIO.RelayStop)
	}
	if cfg.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.ClientID != "lift-controller" {
		t.Errorf("MQTT.ClientID: got %q", cfg.MQTT.ClientID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "http: [not a map")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsDuplicatePins(t *testing.T) {
	path := writeFile(t, "dup.yaml", `
gpio:
  limit_top: 23
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "assigned twice") {
		t.Errorf("expected duplicate pin error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIFT_HTTP_ADDR", ":9999")
	t.Setenv("LIFT_STATIC_DIR", "/srv/www")
	t.Setenv("LIFT_GPIO_CHIP", "gpiochip4")
	t.Setenv("LIFT_MQTT_BROKER", "tcp://broker:1883")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.StaticDir != "/srv/www" {
		t.Errorf("HTTP.StaticDir: got %q", cfg.HTTP.StaticDir)
	}
	if cfg.GPIO.Chip != "gpiochip4" {
		t.Errorf("GPIO.Chip: got %q", cfg.GPIO.Chip)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("MQTT.Broker: got %q", cfg.MQTT.Broker)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"empty static", func(c *Config) { c.HTTP.StaticDir = "" }, "http.static_dir"},
		{"empty chip", func(c *Config) { c.GPIO.Chip = "" }, "gpio.chip"},
		{"bad ws path", func(c *Config) { c.WebSocket.Path = "socket" }, "websocket.path"},
		{"zero ping", func(c *Config) { c.WebSocket.PingInterval = 0 }, "ping_interval"},
		{"zero buffer", func(c *Config) { c.WebSocket.SendBuffer = 0 }, "send_buffer"},
		{"mqtt without id", func(c *Config) {
			c.MQTT.Broker = "tcp://x:1883"
			c.MQTT.ClientID = ""
		}, "mqtt.client_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if cfg.PingInterval() != 30*time.Second {
		t.Errorf("PingInterval: got %v", cfg.PingInterval())
	}
	if cfg.PongTimeout() != 10*time.Second {
		t.Errorf("PongTimeout: got %v", cfg.PongTimeout())
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "pi-helper.env", "LIFT_TEST_NETWORK_IP=192.168.1.42\n")
	t.Setenv("LIFT_TEST_NETWORK_IP", "")
	os.Unsetenv("LIFT_TEST_NETWORK_IP")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("LIFT_TEST_NETWORK_IP"); got != "192.168.1.42" {
		t.Errorf("env: got %q, want 192.168.1.42", got)
	}
}

func TestLoadEnvFileMissingIgnored(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected nil for missing file, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("expected nil for empty path, got %v", err)
	}
}
