package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/emom-timer/internal/logic"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	eng := cfg.Engine()
	if eng.RoundTime != logic.DefaultRoundTime {
		t.Errorf("round time: got %v, want %v", eng.RoundTime, logic.DefaultRoundTime)
	}
	if eng.Rounds != 10 || eng.BlinkWindow != 3 {
		t.Errorf("engine: got %+v", eng)
	}
	if p := cfg.Pacer(); p != logic.DefaultPacerConfig() {
		t.Errorf("pacer: got %+v, want %+v", p, logic.DefaultPacerConfig())
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("level: got %v, want info", cfg.Level())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "emom.yaml", `
round_time: "1:30"
rounds: 12
tick_interval: 50ms
mqtt_broker: tcp://broker:1883
cors_origins: ["http://a", "http://b"]
gpio:
  enabled: true
  pin_start: 5
`)
	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.RoundTime != "1:30" || cfg.Rounds != 12 {
		t.Errorf("round: got %s x %d", cfg.RoundTime, cfg.Rounds)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("tick: got %v, want 50ms", cfg.TickInterval)
	}
	if cfg.Broker != "tcp://broker:1883" {
		t.Errorf("broker: got %s", cfg.Broker)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"http://a", "http://b"}) {
		t.Errorf("cors: got %v", cfg.CORSOrigins)
	}
	if !cfg.GPIO.Enabled || cfg.GPIO.PinStart != 5 {
		t.Errorf("gpio: got %+v", cfg.GPIO)
	}
	// Untouched fields keep their defaults.
	if cfg.GPIO.PinStop != DefaultPinStop || cfg.BlinkWindow != 3 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.yaml", "rounds: [1, 2\n")
	if err := LoadFile(bad, &cfg); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("EMOM_ROUND_TIME", "0:45")
	t.Setenv("EMOM_ROUNDS", "20")
	t.Setenv("EMOM_TICK_INTERVAL", "10ms")
	t.Setenv("EMOM_GPIO_ENABLED", "true")
	t.Setenv("EMOM_CORS_ORIGINS", "http://a, http://b")
	t.Setenv("EMOM_LOG_LEVEL", "debug")

	cfg := Default()
	if err := LoadEnv(&cfg, noEnvFile(t)); err != nil {
		t.Fatalf("load env: %v", err)
	}

	if cfg.RoundTime != "0:45" || cfg.Rounds != 20 {
		t.Errorf("round: got %s x %d", cfg.RoundTime, cfg.Rounds)
	}
	if cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("tick: got %v", cfg.TickInterval)
	}
	if !cfg.GPIO.Enabled {
		t.Error("gpio should be enabled")
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"http://a", "http://b"}) {
		t.Errorf("cors: got %v", cfg.CORSOrigins)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("level: got %v", cfg.Level())
	}
}

func TestLoadEnvBadValues(t *testing.T) {
	t.Setenv("EMOM_ROUNDS", "many")
	t.Setenv("EMOM_HEARTBEAT", "soon")

	cfg := Default()
	err := LoadEnv(&cfg, noEnvFile(t))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	if cfg.Rounds != 10 {
		t.Errorf("rounds changed on parse error: %d", cfg.Rounds)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "EMOM_NATS_URL=nats://localhost:4222\n")
	t.Cleanup(func() { os.Unsetenv("EMOM_NATS_URL") })

	cfg := Default()
	if err := LoadEnv(&cfg, path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("nats: got %q", cfg.NATSURL)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "emom.yaml", "rounds: 12\nblink_window: 5\nround_time: \"2:00\"\n")
	t.Setenv("EMOM_ROUNDS", "15")
	t.Setenv("EMOM_BLINK_WINDOW", "4")

	cfg, err := Load([]string{"-config", path, "-env-file", noEnvFile(t), "-rounds", "8"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Rounds != 8 {
		t.Errorf("rounds: got %d, want 8 (flag)", cfg.Rounds)
	}
	if cfg.BlinkWindow != 4 {
		t.Errorf("blink window: got %d, want 4 (env)", cfg.BlinkWindow)
	}
	if cfg.RoundTime != "2:00" {
		t.Errorf("round time: got %s, want 2:00 (file)", cfg.RoundTime)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("http: got %s, want :8080 (default)", cfg.HTTPAddr)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	if _, err := Load([]string{"-env-file", noEnvFile(t), "-rounds", "0"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
	if _, err := Load([]string{"-no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad round time", func(c *Config) { c.RoundTime = "1:99" }},
		{"zero rounds", func(c *Config) { c.Rounds = 0 }},
		{"zero blink window", func(c *Config) { c.BlinkWindow = 0 }},
		{"zero interval", func(c *Config) { c.TickInterval = 0 }},
		{"negative sync", func(c *Config) { c.SyncEvery = -1 }},
		{"negative threshold", func(c *Config) { c.SyncThreshold = -1 }},
		{"slack too large", func(c *Config) { c.Slack = c.TickInterval }},
		{"negative buffer", func(c *Config) { c.BufferSize = -1 }},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }},
		{"gpio without poll", func(c *Config) { c.GPIO.Enabled = true; c.GPIO.Poll = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}
