package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/adapter/stdout"
	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/emulator"
	"github.com/seu-repo/sigec-emu/internal/fleet"
	"github.com/seu-repo/sigec-emu/internal/ports"
)

var (
	kind         = flag.String("kind", "charger", "Device kind: charger or inverter")
	deviceID     = flag.String("id", "", "Device ID (defaults per kind)")
	vendor       = flag.String("vendor", "SIGEC", "Charger vendor")
	model        = flag.String("model", "AC_22kW", "Charger model")
	connectors   = flag.Int("connectors", 2, "Number of connectors")
	maxPower     = flag.Float64("max-power", 22000, "Max charging power (W)")
	peakOutput   = flag.Float64("peak-output", 5000, "Inverter peak output (W)")
	latitude     = flag.Float64("lat", -23.55, "Inverter latitude")
	longitude    = flag.Float64("lon", -46.63, "Inverter longitude")
	timezone     = flag.String("tz", "America/Sao_Paulo", "Inverter timezone")
	mode         = flag.String("mode", "inverter", "Inverter reporting mode: inverter or gridPower")
	tickInterval = flag.Duration("tick", 5*time.Second, "Wall-clock tick interval")
	startTime    = flag.String("start", "", "Virtual start time (RFC 3339, default now)")
	faults       = flag.Bool("faults", false, "Enable random fault injection")
	interactive  = flag.Bool("interactive", false, "Enable interactive mode")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var start time.Time
	if *startTime != "" {
		start, err = time.Parse(time.RFC3339, *startTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -start: %v\n", err)
			os.Exit(1)
		}
	}

	sink := ports.MultiSink{stdout.NewSink(os.Stdout, logger)}
	faultCfg := emulator.FaultConfig{Enabled: *faults}

	manager := fleet.NewManager(logger)
	var id string

	switch *kind {
	case "charger":
		id = *deviceID
		if id == "" {
			id = "CHG001"
		}
		c := emulator.NewCharger(emulator.ChargerConfig{
			ChargerID:    id,
			Model:        *model,
			Vendor:       *vendor,
			Connectors:   *connectors,
			MaxPowerW:    *maxPower,
			TickInterval: *tickInterval,
			StartTime:    start,
			Fault:        faultCfg,
		}, sink, logger)
		if err := manager.AddCharger(c); err != nil {
			logger.Fatal("Failed to register charger", zap.Error(err))
		}
	case "inverter":
		id = *deviceID
		if id == "" {
			id = "INV001"
		}
		inv, err := emulator.NewInverter(emulator.InverterConfig{
			InverterID:   id,
			Latitude:     *latitude,
			Longitude:    *longitude,
			Timezone:     *timezone,
			PeakOutputW:  *peakOutput,
			Mode:         domain.InverterMode(*mode),
			TickInterval: *tickInterval,
			StartTime:    start,
			Fault:        faultCfg,
		}, sink, logger)
		if err != nil {
			logger.Fatal("Failed to create inverter", zap.Error(err))
		}
		if err := manager.AddInverter(inv); err != nil {
			logger.Fatal("Failed to register inverter", zap.Error(err))
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown -kind %q (want charger or inverter)\n", *kind)
		os.Exit(1)
	}

	manager.StartAll()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down emulator...")
		manager.StopAll()
		os.Exit(0)
	}()

	if *interactive {
		runInteractiveMode(manager, id, logger)
		return
	}

	fmt.Printf("Device emulator started\n")
	fmt.Printf("  ID: %s\n", id)
	fmt.Printf("  Kind: %s\n", *kind)
	fmt.Printf("  Tick interval: %s\n", *tickInterval)
	fmt.Println("\nPress Ctrl+C to stop")

	select {}
}
