// Package config loads daemon settings. Later sources override earlier ones:
// built-in defaults, an optional YAML file, a .env file and EMOM_* environment
// variables, then command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/emom-timer/internal/logic"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Default BCM pins for the button box.
const (
	DefaultPinStart = 17
	DefaultPinStop  = 27
	DefaultPinReset = 22
	DefaultPinGreen = 23
	DefaultPinRed   = 24
)

// Config contains every daemon setting.
type Config struct {
	RoundTime   string `yaml:"round_time"`
	Rounds      int    `yaml:"rounds"`
	BlinkWindow int    `yaml:"blink_window"`

	TickInterval  time.Duration `yaml:"tick_interval"`
	SyncEvery     int           `yaml:"sync_every"`
	SyncThreshold int           `yaml:"sync_threshold"`
	Slack         time.Duration `yaml:"slack"`

	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	Broker     string        `yaml:"mqtt_broker"`
	BufferSize int           `yaml:"mqtt_buffer"`
	NATSURL    string        `yaml:"nats_url"`
	Heartbeat  time.Duration `yaml:"heartbeat"`

	GPIO GPIOConfig `yaml:"gpio"`

	LogLevel string `yaml:"log_level"`
}

// GPIOConfig describes the optional button box.
type GPIOConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Chip     string        `yaml:"chip"`
	Poll     time.Duration `yaml:"poll"`
	Debounce time.Duration `yaml:"debounce"`
	PinStart int           `yaml:"pin_start"`
	PinStop  int           `yaml:"pin_stop"`
	PinReset int           `yaml:"pin_reset"`
	PinGreen int           `yaml:"pin_green"`
	PinRed   int           `yaml:"pin_red"`
}

// Default returns the built-in configuration.
func Default() Config {
	pacer := logic.DefaultPacerConfig()
	return Config{
		RoundTime:     logic.DefaultRoundTime.Clock(),
		Rounds:        logic.DefaultRounds,
		BlinkWindow:   logic.DefaultBlinkWindow,
		TickInterval:  pacer.Interval,
		SyncEvery:     pacer.SyncEvery,
		SyncThreshold: pacer.SyncThreshold,
		HTTPAddr:      ":8080",
		BufferSize:    1000,
		Heartbeat:     15 * time.Minute,
		GPIO: GPIOConfig{
			Chip:     "gpiochip0",
			Poll:     20 * time.Millisecond,
			Debounce: 50 * time.Millisecond,
			PinStart: DefaultPinStart,
			PinStop:  DefaultPinStop,
			PinReset: DefaultPinReset,
			PinGreen: DefaultPinGreen,
			PinRed:   DefaultPinRed,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from all sources and validates it.
// args are the command-line arguments without the program name.
func Load(args []string) (Config, error) {
	// First pass only discovers -config and -env-file; the values of the
	// other flags are applied last so they win over the file and env.
	probe := Default()
	first := newFlagSet(&probe)
	path := first.String("config", os.Getenv("EMOM_CONFIG"), "YAML config file")
	envFile := first.String("env-file", ".env", "dotenv file to load (missing file is ignored)")
	if err := first.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *path != "" {
		if err := LoadFile(*path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := LoadEnv(&cfg, *envFile); err != nil {
		return Config{}, err
	}

	final := newFlagSet(&cfg)
	final.String("config", "", "")
	final.String("env-file", "", "")
	if err := final.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	return nil
}

// LoadEnv loads envFiles (if present) into the process environment without
// overriding variables that are already set, then overlays EMOM_* variables
// onto cfg.
func LoadEnv(cfg *Config, envFiles ...string) error {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	e := envReader{}
	e.str("EMOM_ROUND_TIME", &cfg.RoundTime)
	e.int("EMOM_ROUNDS", &cfg.Rounds)
	e.int("EMOM_BLINK_WINDOW", &cfg.BlinkWindow)
	e.dur("EMOM_TICK_INTERVAL", &cfg.TickInterval)
	e.int("EMOM_SYNC_EVERY", &cfg.SyncEvery)
	e.int("EMOM_SYNC_THRESHOLD", &cfg.SyncThreshold)
	e.dur("EMOM_SLACK", &cfg.Slack)
	e.str("EMOM_HTTP_ADDR", &cfg.HTTPAddr)
	e.list("EMOM_CORS_ORIGINS", &cfg.CORSOrigins)
	e.str("EMOM_MQTT_BROKER", &cfg.Broker)
	e.int("EMOM_MQTT_BUFFER", &cfg.BufferSize)
	e.str("EMOM_NATS_URL", &cfg.NATSURL)
	e.dur("EMOM_HEARTBEAT", &cfg.Heartbeat)
	e.bool("EMOM_GPIO_ENABLED", &cfg.GPIO.Enabled)
	e.str("EMOM_GPIO_CHIP", &cfg.GPIO.Chip)
	e.dur("EMOM_GPIO_POLL", &cfg.GPIO.Poll)
	e.dur("EMOM_GPIO_DEBOUNCE", &cfg.GPIO.Debounce)
	e.int("EMOM_PIN_START", &cfg.GPIO.PinStart)
	e.int("EMOM_PIN_STOP", &cfg.GPIO.PinStop)
	e.int("EMOM_PIN_RESET", &cfg.GPIO.PinReset)
	e.int("EMOM_PIN_GREEN", &cfg.GPIO.PinGreen)
	e.int("EMOM_PIN_RED", &cfg.GPIO.PinRed)
	e.str("EMOM_LOG_LEVEL", &cfg.LogLevel)

	return errors.Join(e.errs...)
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := logic.ParseTime(c.RoundTime); err != nil {
		return fmt.Errorf("%w: round_time: %v", ErrInvalid, err)
	}
	switch {
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalid, c.Rounds)
	case c.BlinkWindow < 1:
		return fmt.Errorf("%w: blink_window must be at least 1, got %d", ErrInvalid, c.BlinkWindow)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be positive, got %v", ErrInvalid, c.TickInterval)
	case c.SyncEvery < 0:
		return fmt.Errorf("%w: sync_every must not be negative, got %d", ErrInvalid, c.SyncEvery)
	case c.SyncThreshold < 0:
		return fmt.Errorf("%w: sync_threshold must not be negative, got %d", ErrInvalid, c.SyncThreshold)
	case c.Slack < 0 || c.Slack >= c.TickInterval:
		return fmt.Errorf("%w: slack must be in [0, tick_interval), got %v", ErrInvalid, c.Slack)
	case c.BufferSize < 0:
		return fmt.Errorf("%w: mqtt_buffer must not be negative, got %d", ErrInvalid, c.BufferSize)
	case c.Heartbeat < 0:
		return fmt.Errorf("%w: heartbeat must not be negative, got %v", ErrInvalid, c.Heartbeat)
	case c.GPIO.Enabled && c.GPIO.Poll <= 0:
		return fmt.Errorf("%w: gpio.poll must be positive, got %v", ErrInvalid, c.GPIO.Poll)
	case c.GPIO.Debounce < 0:
		return fmt.Errorf("%w: gpio.debounce must not be negative, got %v", ErrInvalid, c.GPIO.Debounce)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return nil
}

// Engine returns the engine settings. Call Validate first.
func (c Config) Engine() logic.EngineConfig {
	rt, _ := logic.ParseTime(c.RoundTime)
	return logic.EngineConfig{
		RoundTime:   rt,
		Rounds:      c.Rounds,
		BlinkWindow: c.BlinkWindow,
	}
}

// Pacer returns the scheduler settings.
func (c Config) Pacer() logic.PacerConfig {
	return logic.PacerConfig{
		Interval:      c.TickInterval,
		SyncEvery:     c.SyncEvery,
		SyncThreshold: c.SyncThreshold,
		Slack:         c.Slack,
	}
}

// Level returns the zerolog level. Call Validate first.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Usage writes the flag defaults to w.
func Usage(w io.Writer) {
	cfg := Default()
	flags := newFlagSet(&cfg)
	flags.String("config", "", "YAML config file (or EMOM_CONFIG)")
	flags.String("env-file", ".env", "dotenv file to load (missing file is ignored)")
	flags.SetOutput(w)
	fmt.Fprintln(w, "Usage of emom-timer:")
	flags.PrintDefaults()
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	flags := flag.NewFlagSet("emom-timer", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVar(&cfg.RoundTime, "round-time", cfg.RoundTime, "Round duration (m:ss)")
	flags.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Number of rounds")
	flags.IntVar(&cfg.BlinkWindow, "blink-window", cfg.BlinkWindow, "Seconds of warning blink at each end of a round")
	flags.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Tick interval")
	flags.IntVar(&cfg.SyncEvery, "sync-every", cfg.SyncEvery, "Ticks between wall-clock checks (0 disables)")
	flags.IntVar(&cfg.SyncThreshold, "sync-threshold", cfg.SyncThreshold, "Ticks of drift tolerated before resync")
	flags.DurationVar(&cfg.Slack, "slack", cfg.Slack, "Subtracted from every timer delay")
	flags.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP address (empty to disable)")
	flags.Func("cors-origins", "Allowed CORS origins (space separated)", func(val string) error {
		cfg.CORSOrigins = strings.Fields(val)
		return nil
	})
	flags.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address (empty to disable)")
	flags.IntVar(&cfg.BufferSize, "mqtt-buffer", cfg.BufferSize, "Messages buffered while the broker is unreachable")
	flags.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server URL (empty to disable)")
	flags.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	flags.BoolVar(&cfg.GPIO.Enabled, "gpio", cfg.GPIO.Enabled, "Enable GPIO buttons and LEDs")
	flags.StringVar(&cfg.GPIO.Chip, "gpio-chip", cfg.GPIO.Chip, "GPIO character device")
	flags.DurationVar(&cfg.GPIO.Poll, "poll", cfg.GPIO.Poll, "GPIO polling interval")
	flags.DurationVar(&cfg.GPIO.Debounce, "debounce", cfg.GPIO.Debounce, "Button debounce duration")
	flags.IntVar(&cfg.GPIO.PinStart, "pin-start", cfg.GPIO.PinStart, "BCM pin for the start button")
	flags.IntVar(&cfg.GPIO.PinStop, "pin-stop", cfg.GPIO.PinStop, "BCM pin for the stop button")
	flags.IntVar(&cfg.GPIO.PinReset, "pin-reset", cfg.GPIO.PinReset, "BCM pin for the reset button")
	flags.IntVar(&cfg.GPIO.PinGreen, "pin-green", cfg.GPIO.PinGreen, "BCM pin for the round-start LED")
	flags.IntVar(&cfg.GPIO.PinRed, "pin-red", cfg.GPIO.PinRed, "BCM pin for the round-end LED")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Logging level (trace|debug|info|warn|error)")
	return flags
}

type envReader struct {
	errs []error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err))
		return
	}
	*dst = n
}

func (e *envReader) bool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err))
		return
	}
	*dst = b
}

func (e *envReader) dur(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err))
		return
	}
	*dst = d
}
