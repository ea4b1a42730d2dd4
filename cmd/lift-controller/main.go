// Command lift-controller drives the lift relays from a browser over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/lift-controller/internal/config"
	"github.com/sweeney/lift-controller/internal/controller"
	"github.com/sweeney/lift-controller/internal/gpio"
	"github.com/sweeney/lift-controller/internal/logic"
	"github.com/sweeney/lift-controller/internal/mqtt"
	"github.com/sweeney/lift-controller/internal/status"
	"github.com/sweeney/lift-controller/internal/web"
)

// shutdownTimeout bounds how long in-flight HTTP requests get on exit.
const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (empty for built-in defaults)")
	envFile := flag.String("env-file", "/run/pi-helper.env", "dotenv file loaded before config (missing file is ignored)")
	printState := flag.Bool("print-state", false, "Print relay and limit pin levels and exit")

	flag.Parse()

	if err := run(*configPath, *envFile, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, envFile string, printState bool) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	hw, err := gpio.NewRealController(cfg.GPIO.Chip, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	if printState {
		lv, err := hw.Levels()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		for _, line := range controller.DiagnosticLines(cfg.Pins(), lv) {
			fmt.Println(line)
		}
		return nil
	}

	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return serve(cfg, hw, publisher, ln, time.Now, sigCh)
}

// serve wires the controller, hub and observers, serves HTTP on ln and blocks
// until a signal arrives or the server fails. publisher may be nil.
func serve(cfg config.Config, hw gpio.Controller, publisher mqtt.Publisher, ln net.Listener, now func() time.Time, sig <-chan os.Signal) error {
	tracker := status.NewTracker(now(), status.Config{
		HTTPAddr:  cfg.HTTP.Addr,
		StaticDir: cfg.HTTP.StaticDir,
		Chip:      cfg.GPIO.Chip,
		Pins:      cfg.Pins().All(),
		Broker:    cfg.MQTT.Broker,
	})
	if info := readNetworkInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	hub := web.NewHub()
	ctl := controller.New(hw, cfg.Pins(), hub)
	ctl.SetClock(now)
	ctl.AddObserver(tracker)
	tracker.SetClientCounter(hub.ClientCount)

	mqttStatus, _ := publisher.(mqtt.ConnectionStatus)
	if publisher != nil {
		ctl.AddObserver(mqtt.Observer{Publisher: publisher})
		if mqttStatus != nil {
			ctl.AddObserver(controller.ObserverFunc(func(logic.CommandEvent) {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}))
		}
		publishSystem(publisher, mqttStatus, tracker, now, "STARTUP", "")
	}

	srv := web.New(cfg, ctl, hub, tracker)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Printf("started: http=%s static=%s chip=%s pins=%v mqtt=%q",
		ln.Addr(), cfg.HTTP.StaticDir, cfg.GPIO.Chip, cfg.Pins().All(), cfg.MQTT.Broker)

	select {
	case s := <-sig:
		log.Printf("received %v, shutting down", s)
		if publisher != nil {
			publishSystem(publisher, mqttStatus, tracker, now, "SHUTDOWN", signalName(s))
		}
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// publishSystem publishes a retained lifecycle event carrying a full status
// snapshot. Failures are logged only.
func publishSystem(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, event, reason string) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
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
