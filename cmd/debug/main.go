package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hexilink/internal/app"
	"hexilink/internal/bus"
	"hexilink/internal/config"
	"hexilink/internal/events"
	"hexilink/internal/hostlink"
	"hexilink/internal/logging"
	"hexilink/internal/notifications"
	"hexilink/internal/persistence"
	"hexilink/internal/telemetry"
	"hexilink/internal/transport"
)

const (
	infoPollInterval = time.Second
	maxHexPreviewLen = 64
)

func main() {
	if err := run(); err != nil {
		slog.Error("run debug tool", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.String("port", "", "serial port of the KW40Z link, e.g. /dev/ttyACM0")
	baud := flag.Int("baud", 0, "serial baud rate (default from config)")
	listenFor := flag.Duration("listen-for", 0, "listen duration, e.g. 30s (0 = until interrupt)")
	raw := flag.Bool("raw", false, "log raw frames in both directions")
	alert := flag.String("alert", "", "send this alert text once the link is up")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(*port) != "" {
		cfg.Link.SerialPort = strings.TrimSpace(*port)
	}
	if *baud > 0 {
		cfg.Link.SerialBaud = *baud
	}
	if strings.TrimSpace(cfg.Link.SerialPort) == "" {
		return fmt.Errorf("missing serial port: set --port or save link.serial_port in config")
	}

	logMgr := logging.NewManager()
	cfg.Logging.LogToFile = false
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting hexilink debug",
		"version", app.BuildVersion(),
		"build_date", app.BuildDateYMD(),
		"port", cfg.Link.SerialPort,
		"baud", cfg.Link.SerialBaud,
	)

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()

	if cfg.Recorder.Enabled {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("close sqlite", "error", closeErr)
			}
		}()

		writer := persistence.NewWriterQueue(logMgr.Logger("persistence"), 256)
		writer.Start(ctx)
		recorder := app.NewRecorder(
			b,
			writer,
			persistence.NewReadingRepo(db),
			persistence.NewEventRepo(db),
			logMgr.Logger("recorder"),
		)
		recorder.Start(ctx)
	}

	if cfg.Notifications.Enabled {
		sender := notifications.NewDesktopSender(logMgr.Logger("notifications"))
		notifier := app.NewNotifier(b, func() config.AppConfig { return cfg }, sender, logMgr.Logger("notifier"))
		notifier.Start(ctx)
	}

	if cfg.Telemetry.Enabled {
		bridge, err := telemetry.NewBridge(logMgr.Logger("telemetry"), b, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("configure telemetry: %w", err)
		}
		go func() {
			if runErr := bridge.Run(ctx); runErr != nil {
				logger.Warn("telemetry bridge stopped", "error", runErr)
			}
		}()
	}

	tr := transport.NewSerialTransport(cfg.Link.SerialPort, cfg.Link.SerialBaud)
	link := hostlink.NewService(logMgr.Logger("hostlink"), b, tr, hostlink.DefaultOptions())
	attachPrintingCallbacks(link, logger)
	link.Start(ctx)

	watch(ctx, b, logger, *raw)

	if strings.TrimSpace(*alert) != "" {
		if err := link.SendAlert([]byte(strings.TrimSpace(*alert))); err != nil {
			logger.Warn("queue alert", "error", err)
		}
	}

	if *listenFor > 0 {
		logger.Info("listen mode", "duration", *listenFor)
		listenCtx, cancel := context.WithTimeout(ctx, *listenFor)
		defer cancel()
		pollInfo(listenCtx, link, logger)
		return nil
	}

	logger.Info("listening until interrupt")
	pollInfo(ctx, link, logger)

	return nil
}

// attachPrintingCallbacks registers a logging callback in every slot
// so touch, alert, and pairing traffic is visible without a consumer.
func attachPrintingCallbacks(link *hostlink.Service, logger *slog.Logger) {
	link.AttachButtonUp(func() { logger.Info("callback", "button", "up") })
	link.AttachButtonDown(func() { logger.Info("callback", "button", "down") })
	link.AttachButtonLeft(func() { logger.Info("callback", "button", "left") })
	link.AttachButtonRight(func() { logger.Info("callback", "button", "right") })
	link.AttachButtonSlide(func() { logger.Info("callback", "button", "slide") })
	link.AttachAlert(func() { logger.Info("callback", "event", "alert") })
	link.AttachNotification(func() { logger.Info("callback", "event", "notification") })
	link.AttachPasskey(func() { logger.Info("callback", "event", "passkey", "code", link.Passkey()) })
}

// pollInfo logs the mirrored device state whenever it changes, once a
// second, until the context ends.
func pollInfo(ctx context.Context, link *hostlink.Service, logger *slog.Logger) {
	var (
		lastAdv, lastConn bool
		lastGroup         hostlink.TouchGroup
		seen              bool
	)
	ticker := time.NewTicker(infoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			adv, group, connected := link.Info()
			if seen && adv == lastAdv && group == lastGroup && connected == lastConn {
				continue
			}
			lastAdv, lastGroup, lastConn, seen = adv, group, connected, true
			logger.Info("device state",
				"advertising", adv,
				"touch_group", group,
				"ble_connected", connected,
			)
		}
	}
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger, raw bool) {
	linkSub := b.Subscribe(events.TopicLinkStatus)
	buttonSub := b.Subscribe(events.TopicButton)
	stateSub := b.Subscribe(events.TopicDeviceState)
	var rawInSub, rawOutSub bus.Subscription
	if raw {
		rawInSub = b.Subscribe(events.TopicRawFrameIn)
		rawOutSub = b.Subscribe(events.TopicRawFrameOut)
	}

	go func() {
		defer b.Unsubscribe(linkSub, events.TopicLinkStatus)
		defer b.Unsubscribe(buttonSub, events.TopicButton)
		defer b.Unsubscribe(stateSub, events.TopicDeviceState)
		if raw {
			defer b.Unsubscribe(rawInSub, events.TopicRawFrameIn)
			defer b.Unsubscribe(rawOutSub, events.TopicRawFrameOut)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-linkSub:
				if status, ok := msg.(events.LinkStatus); ok {
					logger.Info("link", "state", status.State, "target", status.Target, "error", status.Err)
				}
			case msg := <-buttonSub:
				if press, ok := msg.(events.ButtonPress); ok {
					logger.Info("button", "which", press.Button)
				}
			case msg := <-stateSub:
				if state, ok := msg.(events.DeviceState); ok {
					logger.Info("state",
						"advertising", state.AdvertisingOn,
						"right_touch", state.RightTouchPad,
						"ble_connected", state.LinkConnected,
					)
				}
			case msg := <-rawInSub:
				if frame, ok := msg.(events.RawFrame); ok {
					logger.Info("raw-in", "len", frame.Len, "hex", previewHex(frame.Hex))
				}
			case msg := <-rawOutSub:
				if frame, ok := msg.(events.RawFrame); ok {
					logger.Info("raw-out", "len", frame.Len, "hex", previewHex(frame.Hex))
				}
			}
		}
	}()
}

func previewHex(hex string) string {
	hex = strings.TrimSpace(hex)
	if len(hex) <= maxHexPreviewLen {
		return hex
	}
	return hex[:maxHexPreviewLen] + "..."
}
