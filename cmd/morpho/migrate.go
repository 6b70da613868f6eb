package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/banshee-data/morphometry/internal/db"
)

func runMigrate(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: migrate requires one of status, up, down", errUsage)
	}
	action := args[0]

	fs := flag.NewFlagSet("migrate "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "morpho.db", "SQLite statistics database")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	// OpenDB leaves the schema alone so status reflects the file on disk.
	database, err := db.OpenDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	migrations := db.MigrationsFS()

	switch action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("%w: unknown migrate action %q", errUsage, action)
	}

	current, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	latest, err := db.LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "schema version %d of %d", current, latest)
	if dirty {
		fmt.Fprint(stdout, " (dirty)")
	}
	fmt.Fprintln(stdout)
	return nil
}
