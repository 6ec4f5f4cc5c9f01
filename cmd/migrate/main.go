package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/config"
	"github.com/codeRisshi25/flowai/internal/repo/journal"
)

// main управляет схемой журнала размещений: up, up-by-one, down, status, version.
func main() {
	dsnFlag := flag.String("dsn", "", "journal DSN (overrides journal_dsn from config)")
	timeout := flag.Duration("timeout", 30*time.Second, "migration timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [up|up-by-one|down|status|version]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := journal.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	dsn := strings.TrimSpace(*dsnFlag)
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			logrus.WithError(err).Fatal("load config")
		}
		dsn = strings.TrimSpace(cfg.JournalDSN)
	}
	if dsn == "" {
		logrus.Fatal("journal_dsn is not configured")
	}
	if journal.IsMemory(dsn) {
		logrus.Info("memory journal selected, nothing to migrate")
		return
	}

	goose.SetLogger(logrus.StandardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := journal.RunMigrations(ctx, dsn, command); err != nil {
		logrus.WithError(err).WithField("command", command).Fatal("journal migration failed")
	}

	logrus.WithField("command", command).Info("journal migration done")
}
