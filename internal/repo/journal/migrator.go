package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

// Команды миграций журнала.
const (
	MigrateUp      = "up"
	MigrateUpByOne = "up-by-one"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ApplyMigrations накатывает все миграции журнала.
func ApplyMigrations(ctx context.Context, dsn string) error {
	return RunMigrations(ctx, dsn, MigrateUp)
}

// RunMigrations выполняет goose-команду над встроенными SQL файлами.
func RunMigrations(ctx context.Context, dsn, command string) error {
	run, err := migrationCommand(command)
	if err != nil {
		return err
	}
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("journal dsn is empty")
	}
	if IsMemory(dsn) {
		return fmt.Errorf("journal %q keeps no schema", dsn)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := run(ctx, db); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func migrationCommand(command string) (func(context.Context, *sql.DB) error, error) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case MigrateUp:
		return func(ctx context.Context, db *sql.DB) error { return goose.UpContext(ctx, db, migrationsDir) }, nil
	case MigrateUpByOne:
		return func(ctx context.Context, db *sql.DB) error { return goose.UpByOneContext(ctx, db, migrationsDir) }, nil
	case MigrateDown:
		return func(ctx context.Context, db *sql.DB) error { return goose.DownContext(ctx, db, migrationsDir) }, nil
	case MigrateStatus:
		return func(ctx context.Context, db *sql.DB) error { return goose.StatusContext(ctx, db, migrationsDir) }, nil
	case MigrateVersion:
		return func(ctx context.Context, db *sql.DB) error { return goose.VersionContext(ctx, db, migrationsDir) }, nil
	default:
		return nil, fmt.Errorf("unknown migration command %q", command)
	}
}
