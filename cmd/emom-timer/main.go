// Command emom-timer runs an EMOM workout clock with a web UI, optional
// GPIO buttons and lights, and event publishing to MQTT and NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/config"
	"github.com/sweeney/emom-timer/internal/controller"
	"github.com/sweeney/emom-timer/internal/events"
	"github.com/sweeney/emom-timer/internal/gpio"
	"github.com/sweeney/emom-timer/internal/logic"
	"github.com/sweeney/emom-timer/internal/metrics"
	"github.com/sweeney/emom-timer/internal/mqtt"
	"github.com/sweeney/emom-timer/internal/natsbus"
	"github.com/sweeney/emom-timer/internal/status"
	"github.com/sweeney/emom-timer/internal/web"
)

// refreshInterval is how often connection state is sampled and the heartbeat checked.
const refreshInterval = time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config) error {
	clock := clockwork.NewRealClock()

	engine := logic.NewEngine(cfg.Engine())
	pacer := logic.NewPacer(cfg.Pacer())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Publishers
	var (
		pubs       []events.Publisher
		mqttStatus events.ConnectionStatus
		natsStatus events.ConnectionStatus
	)
	if cfg.Broker != "" {
		p := mqtt.NewRealPublisher(mqtt.Options{Broker: cfg.Broker, BufferSize: cfg.BufferSize})
		pubs = append(pubs, p)
		mqttStatus = p
		m.WatchConnection("mqtt", p.IsConnected)
	}
	if cfg.NATSURL != "" {
		natsCfg := natsbus.DefaultConfig()
		natsCfg.URL = cfg.NATSURL
		p, err := natsbus.Connect(natsCfg)
		if err != nil {
			return fmt.Errorf("init nats: %w", err)
		}
		pubs = append(pubs, p)
		natsStatus = p
		m.WatchConnection("nats", p.IsConnected)
	}
	queue := events.NewQueue(events.DefaultQueueSize, pubs...)
	m.WatchQueue(queue.Dropped)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clock, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	observers := []controller.Observer{tracker, m, publishEvents(queue)}

	// Initialize GPIO
	var buttons gpio.Buttons
	if cfg.GPIO.Enabled {
		board, err := gpio.NewBoard(cfg.GPIO.Chip, gpio.Pins{
			Start: cfg.GPIO.PinStart,
			Stop:  cfg.GPIO.PinStop,
			Reset: cfg.GPIO.PinReset,
			Green: cfg.GPIO.PinGreen,
			Red:   cfg.GPIO.PinRed,
		})
		if err != nil {
			queue.Close()
			return fmt.Errorf("init gpio: %w", err)
		}
		defer board.Close()
		buttons = board
		observers = append(observers, gpio.NewLEDObserver(board))
	}

	// The web server needs the controller to send commands, and the
	// controller needs the server to push updates.
	var srv *web.Server
	observers = append(observers, controller.ObserverFunc(func(view logic.View, evs []logic.Event) {
		if srv != nil {
			srv.Observe(view, evs)
		}
	}))

	ctrl := controller.New(engine, pacer, clock, controller.Options{
		Observers: observers,
		Recorder:  m,
	})

	if cfg.HTTPAddr != "" {
		srv = web.New(cfg.HTTPAddr, tracker, ctrl, web.Options{
			CORSOrigins: cfg.CORSOrigins,
			Metrics:     m.Handler(),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			log.Error().Err(err).Msg("controller stopped")
		}
	}()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	if err := queue.PublishSystem(events.SystemEvent{
		Timestamp:  snap.Now,
		Event:      events.SystemStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, events.SystemStartup, ""),
	}); err != nil {
		log.Error().Err(err).Msg("failed to publish startup event")
	}

	if srv != nil {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
	}

	log.Info().
		Str("round_time", cfg.RoundTime).
		Int("rounds", cfg.Rounds).
		Dur("tick", cfg.TickInterval).
		Str("broker", cfg.Broker).
		Str("nats", cfg.NATSURL).
		Bool("gpio", cfg.GPIO.Enabled).
		Msg("started")

	var poll <-chan time.Time
	if buttons != nil {
		ticker := clock.NewTicker(cfg.GPIO.Poll)
		defer ticker.Stop()
		poll = ticker.Chan()
	}
	refresh := clock.NewTicker(refreshInterval)
	defer refresh.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		ctrl:       ctrl,
		buttons:    buttons,
		publisher:  queue,
		tracker:    tracker,
		mqttStatus: mqttStatus,
		natsStatus: natsStatus,
		clock:      clock,
		debounce:   cfg.GPIO.Debounce,
		heartbeat:  cfg.Heartbeat,
	}
	loopErr := d.runLoop(ctx, poll, refresh.Chan(), sigCh)

	// Stop the controller before the queue drains and closes the publishers.
	cancel()
	<-ctrl.Done()

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		done()
	}
	if err := queue.Close(); err != nil {
		log.Warn().Err(err).Msg("close publishers")
	}
	return loopErr
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		TickMs:      cfg.TickInterval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		BlinkWindow: cfg.BlinkWindow,
		Broker:      cfg.Broker,
		NATSURL:     cfg.NATSURL,
		HTTPAddr:    cfg.HTTPAddr,
		GPIO:        cfg.GPIO.Enabled,
	}
}

// publishEvents forwards engine events to pub.
func publishEvents(pub events.Publisher) controller.Observer {
	return controller.ObserverFunc(func(_ logic.View, evs []logic.Event) {
		for _, e := range evs {
			if err := pub.Publish(e); err != nil {
				// Don't stall the clock on publish failure
				log.Debug().Err(err).Str("event", string(e.Type)).Msg("publish")
			}
		}
	})
}

// commander is the part of the controller the loop drives.
type commander interface {
	Do(ctx context.Context, cmd logic.Command) (logic.View, error)
	Snapshot() logic.View
}

// daemon owns everything the main loop touches.
type daemon struct {
	ctrl       commander
	buttons    gpio.Buttons
	publisher  events.Publisher
	tracker    *status.Tracker
	mqttStatus events.ConnectionStatus
	natsStatus events.ConnectionStatus
	clock      clockwork.Clock
	debounce   time.Duration
	heartbeat  time.Duration
}

func (d *daemon) runLoop(ctx context.Context, poll, refresh <-chan time.Time, sig <-chan os.Signal) error {
	detector := logic.NewButtonDetector(d.debounce)
	heartbeat := logic.NewHeartbeat(d.clock.Now())

	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			reason := signalName(s)
			d.refreshConnections()
			snap := d.tracker.Snapshot()
			event := events.SystemEvent{
				Timestamp:  snap.Now,
				Event:      events.SystemShutdown,
				Reason:     reason,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, events.SystemShutdown, reason),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Error().Err(err).Msg("failed to publish shutdown event")
			} else {
				log.Info().Msg("published shutdown event")
			}
			return nil

		case now := <-poll:
			start, stop, reset, err := d.buttons.Read()
			if err != nil {
				log.Error().Err(err).Msg("gpio read error")
				continue
			}

			cmds := detector.Process(logic.ButtonInput{
				Start: start,
				Stop:  stop,
				Reset: reset,
				Time:  now,
			})
			for _, cmd := range cmds {
				log.Info().Str("cmd", string(cmd)).Msg("button pressed")
				if _, err := d.ctrl.Do(ctx, cmd); err != nil {
					log.Error().Err(err).Str("cmd", string(cmd)).Msg("button command failed")
				}
			}

		case now := <-refresh:
			d.refreshConnections()

			hb := heartbeat.Check(now, d.heartbeat, d.ctrl.Snapshot().Counts)
			if hb == nil {
				continue
			}
			log.Info().
				Dur("uptime", hb.Uptime).
				Int("starts", hb.Counts.Starts).
				Int("rounds_completed", hb.Counts.RoundsCompleted).
				Int("finished", hb.Counts.Finished).
				Msg("heartbeat")

			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				d.tracker.SetNetwork(net)
			}
			snap := d.tracker.Snapshot()
			if err := d.publisher.PublishSystem(events.SystemEvent{
				Timestamp:  hb.Timestamp,
				Event:      events.SystemHeartbeat,
				RawPayload: status.FormatStatusEvent(snap, events.SystemHeartbeat, ""),
			}); err != nil {
				log.Error().Err(err).Msg("heartbeat publish error")
			}
		}
	}
}

// refreshConnections copies broker connection state into the tracker.
func (d *daemon) refreshConnections() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	if d.natsStatus != nil {
		d.tracker.SetNATSConnected(d.natsStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
