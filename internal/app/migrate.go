package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/recorte/internal/cli"
	"horse.fit/recorte/internal/logging"
)

// runMigrate connects once, which drives schema bootstrap and AutoMigrate,
// then exits. Useful for init containers and deploy hooks.
func runMigrate(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Migration timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "migrate does not accept positional arguments")
		return 2
	}

	_, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	logger.Info().Msg("schema migration completed")
	fmt.Println("migrated")
	return 0
}
