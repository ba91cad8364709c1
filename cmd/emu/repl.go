package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/fleet"
)

func runInteractiveMode(manager *fleet.Manager, deviceID string, logger *zap.Logger) {
	fmt.Println("\nDevice Emulator - Interactive Mode")
	fmt.Println("==================================")
	fmt.Println("Commands:")
	fmt.Println("  start <connector> [idTag]  - Start a charging transaction")
	fmt.Println("  stop <txId> [reason]       - Stop a transaction")
	fmt.Println("  status                     - Print the device snapshot")
	fmt.Println("  speed <interval>           - Set wall-clock tick interval (e.g. 500ms)")
	fmt.Println("  pause                      - Stop the tick loop")
	fmt.Println("  resume                     - Restart the tick loop")
	fmt.Println("  quit                       - Exit emulator")
	fmt.Println("")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "start":
			if len(fields) < 2 {
				fmt.Println("usage: start <connector> [idTag]")
				continue
			}
			connector, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("connector must be a number")
				continue
			}
			idTag := "TAG001"
			if len(fields) > 2 {
				idTag = fields[2]
			}
			txID, err := manager.StartTransaction(deviceID, connector, idTag, 0)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("transaction started:", txID)

		case "stop":
			if len(fields) < 2 {
				fmt.Println("usage: stop <txId> [reason]")
				continue
			}
			reason := ""
			if len(fields) > 2 {
				reason = fields[2]
			}
			if err := manager.StopTransaction(deviceID, fields[1], reason); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("transaction stopped")

		case "status":
			printStatus(manager, deviceID)

		case "speed":
			if len(fields) < 2 {
				fmt.Println("usage: speed <interval>")
				continue
			}
			d, err := time.ParseDuration(fields[1])
			if err != nil {
				fmt.Println("invalid duration:", err)
				continue
			}
			if err := manager.SetTickInterval(deviceID, d); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("tick interval set to", d)

		case "pause":
			if err := manager.StopDevice(deviceID); err != nil {
				fmt.Println("error:", err)
			}

		case "resume":
			if err := manager.StartDevice(deviceID); err != nil {
				fmt.Println("error:", err)
			}

		case "quit", "exit":
			manager.StopAll()
			return

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func printStatus(manager *fleet.Manager, deviceID string) {
	if snap, err := manager.ChargerStatus(deviceID); err == nil {
		out, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(out))
		return
	}
	snap, err := manager.InverterStatus(deviceID)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(out))
}
