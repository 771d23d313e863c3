package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"

	// Read when --storage-path is omitted, the same variable the ecom
	// server takes its DSN from.
	storageEnvName = "STOREFRONT_SQL_DB"
)

type flagsValues struct {
	storagePath    string
	migrationsPath string
	down           bool
}

func main() {
	fv := getFlagsValues()
	validateFlags(fv)
	makeMigrations(fv)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default().With("op", "migrator"),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() flagsValues {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres dsn without scheme")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "migrations", "")
	down := pflag.Bool(downFlag, false, "roll back every migration")
	pflag.Parse()

	fv := flagsValues{
		storagePath:    *storagePath,
		migrationsPath: *migrationsPath,
		down:           *down,
	}
	if fv.storagePath == "" {
		fv.storagePath = os.Getenv(storageEnvName)
	}
	return fv
}

func validateFlags(fv flagsValues) {
	var errs []error

	if fv.storagePath == "" {
		errs = append(errs, fmt.Errorf(
			"--%s flag or %s env: required", storagePathFlag, storageEnvName,
		))
	}

	if fv.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// databaseURL accepts both a bare "user:pass@host/db" and a full
// postgres:// url.
func databaseURL(storagePath string) string {
	for _, scheme := range []string{"postgres://", "postgresql://", "pgx5://"} {
		storagePath = strings.TrimPrefix(storagePath, scheme)
	}
	return "pgx5://" + storagePath
}

func makeMigrations(fv flagsValues) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", fv.migrationsPath),
		databaseURL(fv.storagePath),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			slog.Error("failed to close migrator", "err", err)
		}
	}()

	m.Log = NewMigrationLogger()

	apply, direction := m.Up, "up"
	if fv.down {
		apply, direction = m.Down, "down"
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "direction", direction, "err", err)
		fallDown()
	}
	m.Log.Printf("migrations applied: %s", direction)
}

func fallDown() {
	os.Exit(2)
}
