package cmd

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/dispatch"
	"github.com/evflow/evflow/internal/evdevio"
	"github.com/evflow/evflow/internal/events"
	"github.com/evflow/evflow/internal/everr"
	"github.com/evflow/evflow/internal/hookexec"
	"github.com/evflow/evflow/internal/logging"
	"github.com/evflow/evflow/internal/output"
	"github.com/evflow/evflow/internal/setupfile"
)

// CreateRunCmd creates the run command: load a setup file, open the
// listed input devices, and hand control to the dispatch loop.
func CreateRunCmd() *cobra.Command {
	var configFile string
	var logLevel string
	var logJSON bool

	c := &cobra.Command{
		Use:   "run",
		Short: "Run the event-processing pipeline from a setup file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format := "text"
			if logJSON {
				format = "json"
			}
			logging.Initialize(logging.Config{Level: logLevel, Format: format})
			logger := logging.GetLogger("main")
			return runPipeline(configFile, logger)
		},
	}
	c.Flags().StringVarP(&configFile, "config", "c", "evflow.toml", "path to the setup file")
	c.Flags().StringVar(&logLevel, "log-level", "info", "global log level (debug, info, warn, error)")
	c.Flags().BoolVar(&logJSON, "log-json", false, "emit JSON log records instead of text")
	return c
}

func runPipeline(configFile string, logger *slog.Logger) error {
	bus := events.New()
	bus.Subscribe(func(e events.DeviceBrokenEvent) {
		logger.Warn("input device broken", "path", e.Path, "domain", e.Domain, "reason", e.Reason)
	})
	bus.Subscribe(func(e events.DeviceReopenedEvent) {
		logger.Info("input device reopened", "path", e.Path, "domain", e.Domain)
	})
	bus.Subscribe(func(e events.HookFiredEvent) { logger.Debug("hook fired", "argv", e.Argv) })
	bus.Subscribe(func(e events.OutputRecreatedEvent) {
		logger.Info("output device created", "name", e.Name, "codes", e.Codes)
	})
	router := output.NewRouter("evflow output", logging.GetLogger("output"), bus)
	supervisor := hookexec.NewSupervisor(bus)
	spawn := func(argv []string) {
		if err := supervisor.Spawn(argv); err != nil {
			logger.Warn("spawning hook subprocess", "argv", argv, "error", err)
		}
	}

	res, err := setupfile.Load(configFile, capability.InputCapabilities{}, router, spawn)
	if err != nil {
		return everr.NewFatal(everr.Context(err, "loading setup file %s", configFile))
	}

	devDir := "/dev/input"
	prog, err := dispatch.NewProgram(res.Setup, devDir, logging.GetLogger("dispatch"), bus, supervisor)
	if err != nil {
		return err
	}

	for _, in := range res.Inputs {
		dev, err := evdevio.Open(in.Path, in.Domain, grabModeFromSetup(in.Grab))
		if err != nil {
			logger.Warn("opening input device", "path", in.Path, "error", err)
			continue
		}
		if err := dev.GrabIfDesired(); err != nil {
			logger.Warn("grabbing input device", "path", in.Path, "error", err)
		}
		caps, err := dev.QueryCapabilities()
		if err != nil {
			logger.Warn("querying input device capabilities", "path", in.Path, "error", err)
		}
		if _, err := prog.AddDevice(dev, in.Persist == setupfile.PersistReopen); err != nil {
			return err
		}
		if err := res.Setup.UpdateInputCaps(in.Domain, caps); err != nil {
			logger.Warn("updating output capabilities", "error", err)
		}
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("notifying systemd readiness", "error", err)
	} else if sent {
		logger.Info("notified systemd readiness")
	}

	return prog.Run()
}

// grabModeFromSetup translates the setup file's symbolic grab mode into
// the driver's own enum, keeping evdevio free of a dependency on the
// setup file's TOML schema.
func grabModeFromSetup(g setupfile.GrabMode) evdevio.GrabMode {
	switch g {
	case setupfile.GrabForce:
		return evdevio.GrabForce
	case setupfile.GrabAuto:
		return evdevio.GrabAuto
	default:
		return evdevio.GrabNone
	}
}
