// import-articles loads an article CSV into Postgres in a single transaction.
package main

import (
	"context" // Request contexts
	"fmt"     // Formatting
	"os"      // Process exit and files
	"time"    // Timestamps

	"srq_assessment/internal/articles" // CSV parsing and upsert
	"srq_assessment/internal/config"   // Configuration

	"github.com/fatih/color"          // Coloured terminal output
	"github.com/jackc/pgx/v4/pgxpool" // Postgres connection pool
	"github.com/sirupsen/logrus"      // Logging library
	"github.com/spf13/pflag"          // Command-line flags
)

func main() {
	cfg := config.LoadConfig()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flagFile := pflag.StringP("file", "f", "articles.csv", "path of the CSV file to import")
	flagDSN := pflag.String("dsn", "", "postgres URL, defaults to the DB_* environment")
	flagTimeout := pflag.Duration("timeout", 5*time.Minute, "abort the import after this long")
	pflag.Parse()

	dsn := *flagDSN
	if dsn == "" {
		dsn = cfg.PostgresURL()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	if err := run(ctx, dsn, *flagFile); err != nil {
		color.Red("import failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	report, err := articles.Import(ctx, articles.PgxStore{Tx: tx}, f, time.Now().UTC())
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logrus.WithField("error", rbErr.Error()).Error("rollback failed")
		}
		return fmt.Errorf("rolled back: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	color.Green("inserted: %d", report.Inserted)
	color.Cyan("updated:  %d", report.Updated)
	if report.Skipped > 0 {
		color.Yellow("skipped:  %d", report.Skipped)
		for _, s := range report.Skips {
			fmt.Printf("  line %d: %s\n", s.Line, s.Reason)
		}
	} else {
		fmt.Println("skipped:  0")
	}
	return nil
}
