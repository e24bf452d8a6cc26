package cli

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fieldcontrol/ds-client/internal/config"
	"github.com/fieldcontrol/ds-client/internal/logging"
	"github.com/fieldcontrol/ds-client/pkg/driverstation"
	"github.com/fieldcontrol/ds-client/pkg/session"
	"github.com/fieldcontrol/ds-client/pkg/wire"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the driver station client",
	Long: `Start the driver station client.

The client connects to the controller derived from the configured team
number, sends periodic control datagrams carrying a demonstration
joystick, and logs the enabled, e-stop and battery state once a second
at debug level.`,
	RunE: runClient,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without starting the client")
}

func runClient(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		logging.Info("using config file", zap.String("path", cfgFile))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	alliance, err := config.AllianceFromString(cfg.Station.Alliance)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Team number: %d\n", cfg.Station.TeamNumber)
		fmt.Printf("  Alliance:    %s\n", cfg.Station.Alliance)
		fmt.Printf("  Simulation:  %v\n", cfg.Station.Simulation)
		fmt.Printf("  Backoff cap: %s\n", cfg.Backoff.MaxWait)
		return nil
	}

	client, err := driverstation.NewFromTeam(cfg.Station.TeamNumber, alliance, driverstation.Options{
		Logger:         logging.Logger,
		BackoffMaxWait: cfg.Backoff.MaxWait,
		TimezoneName:   cfg.Network.TimezoneName,
	})
	if err != nil {
		return fmt.Errorf("failed to construct driver station client: %w", err)
	}
	defer client.Close()

	if cfg.Station.UseLoopback {
		if err := client.SetUseLoopbackTransport(true); err != nil {
			return fmt.Errorf("failed to set loopback transport: %w", err)
		}
	}
	if cfg.Station.Simulation {
		logging.Info("simulation flag set; the simulator probe will switch targets automatically once it detects a listener on the loopback simulation port")
	}

	client.SetJoystickSupplier(demoJoystickSupplier())
	client.SetInboundConsumer(func(frame wire.ReliableFrame) {
		if frame.Stdout != nil {
			logging.Info("controller stdout", zap.String("message", frame.Stdout.Message))
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logging.Info("driver station client is running. Press Ctrl+C to stop.",
		zap.Int("team_number", cfg.Station.TeamNumber))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			logging.Info("received shutdown signal")
			return nil
		case <-ticker.C:
			logging.Debug("status",
				zap.Bool("enabled", client.Enabled()),
				zap.Bool("estopped", client.Estopped()),
				zap.Float32("battery", client.BatteryVoltage()))
		}
	}
}

// demoJoystickSupplier returns a single joystick whose first axis sweeps a
// slow sine wave, useful for exercising the control-datagram path without
// real hardware attached.
func demoJoystickSupplier() session.JoystickSupplier {
	start := time.Now()
	return func() [][]wire.JoystickValue {
		t := time.Since(start).Seconds()
		return [][]wire.JoystickValue{
			{
				wire.Axis{ID: 0, Value: float32(math.Sin(t))},
			},
		}
	}
}
