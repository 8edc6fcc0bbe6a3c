package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/sdlogger/pkg/api"
	"github.com/0xmhha/sdlogger/pkg/config"
	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/cursor"
	"github.com/0xmhha/sdlogger/pkg/errcode"
	"github.com/0xmhha/sdlogger/pkg/hal"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/medium"
	"github.com/0xmhha/sdlogger/pkg/report"
	"github.com/0xmhha/sdlogger/pkg/sensor"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// runCommand runs the logging daemon.
type runCommand struct {
	configPath string
	mount      string
	driver     string
	listen     string
}

// Execute loads configuration, builds the daemon and runs it until ctx is
// cancelled. Setup failures are reported as fatal and returned.
func (c *runCommand) Execute(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	rep := report.New(log)

	d, err := newDaemon(cfg, log, rep)
	if err != nil {
		rep.Report(errcode.WithSeverity(errcode.SetupFailed, errcode.Fatal, "setup", err))
		return err
	}
	defer d.close()

	return d.run(ctx)
}

// loadConfig loads configuration and applies command-line overrides.
func (c *runCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.mount != "" {
		cfg.Medium.MountPath = c.mount
	}
	if c.driver != "" {
		cfg.Hardware.Driver = strings.ToLower(c.driver)
	}
	switch {
	case strings.EqualFold(c.listen, "off"):
		cfg.HTTP.Listen = ""
	case c.listen != "":
		cfg.HTTP.Listen = c.listen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// daemon owns every long-lived component of a running logger.
type daemon struct {
	cfg *config.Config
	log logger.Logger

	ctl      controller.Controller
	journal  journal.Journal
	button   *hal.Button
	notifier medium.Notifier
	server   api.Server

	closers []func() error
}

// hardware is the driver-specific part of the daemon.
type hardware struct {
	sensors  sensor.Source
	battery  sensor.Battery
	button   *hal.Button
	activity hal.OutputPin
	presence hal.OutputPin
}

// newDaemon wires the configured components together. Anything opened
// before a failure is closed again.
func newDaemon(cfg *config.Config, log logger.Logger, rep report.Reporter) (_ *daemon, err error) {
	d := &daemon{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	hw, err := d.openHardware()
	if err != nil {
		return nil, err
	}
	d.button = hw.button

	activity := hal.NewLED("activity", hw.activity, log)
	presence := hal.NewLED("presence", hw.presence, log)
	d.closers = append(d.closers, activity.Close, presence.Close)

	drv := medium.NewDirDriver(medium.DirConfig{
		MountPath:         cfg.Medium.MountPath,
		RequireMountpoint: cfg.Medium.RequireMountpoint,
	}, log)
	mon := medium.NewMonitor(drv, presence, log)

	store := cursor.NewFileStore(cursor.Config{
		Dir:      drv.Root(),
		FileName: cfg.Session.CursorFile,
	}, log)

	writer, err := sessionlog.NewWriter(sessionlog.Config{
		Dir:     drv.Root(),
		Pattern: cfg.Session.FilePattern,
		Sync:    cfg.Session.SyncWrites,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create session writer: %w", err)
	}

	d.journal, err = journal.Open(journal.Config{DBPath: cfg.Storage.StateDB}, log)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, d.journal.Close)

	boots, berr := d.journal.Boots()
	if berr != nil {
		log.Warn("failed to read boot counter", "error", berr)
	}

	d.ctl, err = controller.New(controller.Config{
		Period:          cfg.Sampler.Period,
		IdleInterval:    cfg.Sampler.IdleInterval,
		Ceiling:         cfg.Session.Ceiling,
		BlinkOn:         cfg.Indicator.BlinkOn,
		BlinkOff:        cfg.Indicator.BlinkOff,
		CheckpointEvery: cfg.Session.CheckpointEvery,
	}, controller.Deps{
		Cursor:   store,
		Medium:   mon,
		Writer:   writer,
		Sensors:  hw.sensors,
		Battery:  hw.battery,
		Activity: activity,
		Journal:  d.journal,
		Reporter: rep,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	if cfg.Medium.Watch {
		n, nerr := medium.NewNotifier(medium.NotifierConfig{
			MountPath:        cfg.Medium.MountPath,
			DebounceInterval: cfg.Medium.Debounce,
		}, log)
		if nerr != nil {
			// Polling still picks the medium up on the next iteration.
			log.Warn("medium notifications unavailable", "error", nerr)
		} else {
			d.notifier = n
			d.closers = append(d.closers, n.Close)
		}
	}

	if cfg.HTTP.Listen != "" {
		d.server, err = api.New(api.Config{
			Listen:     cfg.HTTP.Listen,
			ToggleRate: cfg.HTTP.ToggleRate,
		}, api.Deps{
			Controller: d.ctl,
			Sessions:   d.journal,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create http server: %w", err)
		}
	}

	log.Info("sdlogger starting",
		"version", version,
		"driver", cfg.Hardware.Driver,
		"mount", cfg.Medium.MountPath,
		"period", cfg.Sampler.Period,
		"boots", boots,
		"http", cfg.HTTP.Listen)

	return d, nil
}

// openHardware opens sensors, button and lamp pins for the configured driver.
func (d *daemon) openHardware() (*hardware, error) {
	cfg := d.cfg
	if cfg.Hardware.Driver != config.DriverPeriph {
		sim := sensor.NewSim()
		d.log.Info("using simulated hardware")
		return &hardware{
			sensors:  sim,
			battery:  sim,
			activity: &hal.FakeOutput{},
			presence: &hal.FakeOutput{},
		}, nil
	}

	if err := hal.InitHost(); err != nil {
		return nil, err
	}

	bus, err := hal.OpenI2C(cfg.Hardware.I2CBus)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, bus.Close)

	sensors, err := sensor.NewHardware(bus, sensor.HardwareConfig{
		Environment: cfg.Hardware.Environment,
		Motion:      cfg.Hardware.Motion,
		Light:       cfg.Hardware.Light,
	}, d.log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure sensors: %w", err)
	}

	battery, err := sensor.NewSysfsBattery(cfg.Hardware.PowerSupplyRoot, cfg.Hardware.BatterySupply)
	if err != nil {
		return nil, fmt.Errorf("failed to open battery: %w", err)
	}

	pin, err := hal.OpenInput(cfg.Input.ButtonPin, cfg.Input.ActiveLow)
	if err != nil {
		return nil, err
	}
	button := hal.NewButton(pin, hal.ButtonConfig{
		ActiveLow: cfg.Input.ActiveLow,
		Debounce:  cfg.Input.Debounce,
		Poll:      cfg.Input.Poll,
	}, d.log)

	activity, err := hal.OpenOutput(cfg.Indicator.ActivityPin)
	if err != nil {
		return nil, err
	}
	presence, err := hal.OpenOutput(cfg.Indicator.PresencePin)
	if err != nil {
		return nil, err
	}

	return &hardware{
		sensors:  sensors,
		battery:  battery,
		button:   button,
		activity: activity,
		presence: presence,
	}, nil
}

// run starts every task and waits for them. The first task to fail
// cancels the others.
func (d *daemon) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.ctl.Run(ctx)
	})

	if d.button != nil {
		g.Go(func() error {
			return d.button.Run(ctx, d.ctl.HandleEdge)
		})
	}

	if d.notifier != nil {
		if err := d.notifier.Start(ctx); err != nil {
			d.log.Warn("failed to start medium notifier", "error", err)
		} else {
			g.Go(func() error {
				return d.forwardMediumEvents(ctx)
			})
		}
	}

	g.Go(func() error {
		return watchToggleSignal(ctx, d.log, d.ctl.Press)
	})

	if d.server != nil {
		g.Go(func() error {
			return d.server.Run(ctx)
		})
	}

	err := g.Wait()
	d.log.Info("sdlogger stopped", "error", err)
	return err
}

// forwardMediumEvents wakes the controller on mount point activity.
func (d *daemon) forwardMediumEvents(ctx context.Context) error {
	events, errs := d.notifier.Events(), d.notifier.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.log.Debug("medium activity", "path", ev.Path, "op", ev.Op)
			d.ctl.Wake()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, medium.ErrCircuitBreakerOpen) {
				d.log.Warn("medium notifications stopped, relying on polling", "error", err)
				continue
			}
			d.log.Debug("medium notifier error", "error", err)
		}
	}
}

// close releases resources in reverse order of acquisition.
func (d *daemon) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.log.Error("failed to close resource", "error", err)
		}
	}
	d.closers = nil
}

// newLogger builds the logger described by cfg.
func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}
