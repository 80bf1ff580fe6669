package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/config"
	"github.com/rbright/heosctl/internal/connection"
	"github.com/rbright/heosctl/internal/daemon"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/discovery"
	"github.com/rbright/heosctl/internal/heos"
	"github.com/rbright/heosctl/internal/hypr"
	"github.com/rbright/heosctl/internal/indicator"
	"github.com/rbright/heosctl/internal/ipc"
	"github.com/rbright/heosctl/internal/mute"
	"github.com/rbright/heosctl/internal/prefs"
	"github.com/rbright/heosctl/internal/screenshare"
	"github.com/rbright/heosctl/internal/statusapi"
	"github.com/rbright/heosctl/internal/x11"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

const (
	acquireCheckTimeout = 180 * time.Millisecond
	acquireRetries      = 8
)

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, acquireCheckTimeout, acquireRetries)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v at %s\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller, err := buildController(runCtx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	p := pool.New().WithErrors().WithContext(runCtx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return ipc.Serve(ctx, listener, controller)
	})
	if listen := strings.TrimSpace(cfg.Control.HTTPListen); listen != "" {
		p.Go(func(ctx context.Context) error {
			return statusapi.New(controller, logger).Serve(ctx, listen)
		})
	}
	p.Go(func(ctx context.Context) error {
		return controller.Run(ctx)
	})

	logger.Info("daemon started", "socket", socketPath, "http", cfg.Control.HTTPListen)
	if err := p.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	return 0
}

// buildController wires the device engine for one daemon lifetime.
func buildController(ctx context.Context, cfg config.Config, logger *slog.Logger) (*daemon.Controller, error) {
	prefsPath, err := resolvePrefsPath(cfg)
	if err != nil {
		return nil, err
	}
	store := prefs.NewStore(afero.NewOsFs(), prefsPath, logger)
	state := device.NewState(store.Load())

	client := newHEOSClient(cfg.Device, logger)
	channel := command.NewChannel(ctx, state, client, logger)
	syncer := mute.NewSynchronizer(channel, state, logger)

	validator := &connection.Validator{
		Discoverer: newDiscoveryService(cfg.Discovery, logger),
		Directory:  client,
		Persister:  store,
		Refresher:  syncer,
		State:      state,
		Logger:     logger,
	}
	validator.Bind(ctx)

	var notifier indicator.Notifier = indicator.Noop{}
	if cfg.Indicator.Enable {
		notifier = indicator.New(cfg.Indicator, logger)
	}

	deps := daemon.Deps{
		Logger:      logger,
		State:       state,
		Commands:    channel,
		Mute:        syncer,
		Connector:   validator,
		Indicator:   notifier,
		ClickWindow: cfg.Click.Window(),
		Input:       cfg.Actions.Input,
	}

	var monitor *screenshare.Monitor
	if cfg.ScreenShare.Enable {
		monitor = &screenshare.Monitor{
			Source:      windowSource(cfg.ScreenShare.Backend),
			Muter:       syncer,
			AppMarker:   cfg.ScreenShare.AppMarker,
			ShareMarker: cfg.ScreenShare.ShareMarker,
			Interval:    cfg.ScreenShare.Interval(),
			Logger:      logger,
		}
		deps.Monitor = monitor
	}

	controller := daemon.NewController(deps)
	validator.OnResult = controller.ObserveValidation
	if monitor != nil {
		monitor.OnSharing = controller.ObserveSharing
	}
	return controller, nil
}

func newHEOSClient(cfg config.DeviceConfig, logger *slog.Logger) *heos.Client {
	client := heos.NewClient(logger)
	client.Port = cfg.Port
	client.DialTimeout = cfg.DialTimeout()
	client.ReadTimeout = cfg.ReadTimeout()
	return client
}

func newDiscoveryService(cfg config.DiscoveryConfig, logger *slog.Logger) *discovery.Service {
	markers := discovery.Markers{
		Family:     cfg.FamilyMarker,
		Alternates: cfg.AlternateMarkers,
		Models:     cfg.ModelMarkers,
	}

	svc := discovery.NewService(logger)
	svc.MulticastAddr = cfg.MulticastAddr
	svc.SearchTarget = cfg.SearchTarget
	svc.Window = cfg.Window()
	svc.Poll = cfg.PollInterval()
	svc.Sleep = cfg.Sleep()
	svc.Markers = markers
	if cfg.MDNSFallback {
		svc.Fallback = &discovery.MDNS{
			Service: cfg.MDNSService,
			Domain:  "local.",
			Timeout: cfg.Window(),
			Markers: markers,
		}
	}
	return svc
}

func windowSource(backend string) screenshare.WindowSource {
	if backend == "x11" {
		return x11.Windows{}
	}
	return hypr.Windows{}
}
