// Command relayctl writes to and reads from the relay store directly, bypassing the HTTP
// API and the cloud mirror.
//
//	relayctl capteur <type> <valeur>
//	relayctl commande <instruction>
//	relayctl [-limit n] lire
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"iot-command-relay/config"
	"iot-command-relay/db"
	"iot-command-relay/ingest"
	"iot-command-relay/logger"
)

var errUsage = errors.New("invalid arguments")

const usage = `Usage:
  relayctl capteur <type> <valeur>
  relayctl commande <instruction>
  relayctl [-limit n] lire

Examples:
  relayctl capteur temperature 23.5
  relayctl capteur humidite 65
  relayctl commande LED_ON
  relayctl lire
`

func main() {
	limit := flag.Int("limit", db.DefaultRecentReadings, "number of readings shown by lire")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Database.DB())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := run(ctx, store, flag.Args(), *limit, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		log.Errorf("relayctl: %v", err)
		store.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, store *db.Store, args []string, limit int, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch strings.ToLower(args[0]) {
	case "capteur":
		if len(args) != 3 {
			return fmt.Errorf("%w: capteur takes <type> <valeur>", errUsage)
		}
		return addReading(ctx, store, args[1], args[2], out)
	case "commande":
		if len(args) < 2 {
			return fmt.Errorf("%w: commande takes <instruction>", errUsage)
		}
		return addCommand(ctx, store, strings.Join(args[1:], " "), out)
	case "lire":
		return listReadings(ctx, store, limit, out)
	default:
		return fmt.Errorf("%w: unknown action %q", errUsage, args[0])
	}
}

func addReading(ctx context.Context, store *db.Store, sensorType, raw string, out io.Writer) error {
	v, err := ingest.CoerceSensorValue(sensorType, raw)
	if err != nil {
		return err
	}

	reading, err := store.InsertReading(ctx, v.Type, v.Value, v.Text)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Reading %d stored: %s = %s\n", reading.ID, reading.Type, formatValue(*reading))
	return nil
}

func addCommand(ctx context.Context, store *db.Store, command string, out io.Writer) error {
	command, err := ingest.ValidateCommand(command)
	if err != nil {
		return err
	}

	inst, err := store.EnqueueInstruction(ctx, command, "")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Instruction %d queued: %s\n", inst.ID, inst.Command)
	return nil
}

func listReadings(ctx context.Context, store *db.Store, limit int, out io.Writer) error {
	readings, err := store.RecentReadings(ctx, limit)
	if err != nil {
		return err
	}

	pending, err := store.CountInstructions(ctx, db.StatusPending)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Latest sensor readings:")
	if len(readings) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, r := range readings {
		fmt.Fprintf(out, "  %s: %s (%s)\n", r.Type, formatValue(r), r.CreatedAt.Format(time.DateTime))
	}
	fmt.Fprintf(out, "Pending instructions: %d\n", pending)
	return nil
}

func formatValue(r db.Reading) string {
	if r.TextValue != nil {
		return *r.TextValue
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
