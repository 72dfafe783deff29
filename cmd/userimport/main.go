// Command userimport creates user accounts in bulk from a JSON lines
// file. Each line holds a screen name and an optional email address;
// every imported account receives a random password and stays
// uninitialized until its owner logs in for the first time.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/ovee/byceps/cmd/admin/infrastructure"
	"github.com/ovee/byceps/internal/adapter/cache"
	"github.com/ovee/byceps/internal/adapter/db/postgres"
	"github.com/ovee/byceps/internal/config"
	"github.com/ovee/byceps/internal/usecase/useradmin"
	"github.com/ovee/byceps/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

func run() error {
	var filePath string
	flag.StringVar(&filePath, "file", "-", "path to a JSON lines file, '-' reads stdin")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Format:      cfg.Logger.Format,
		OutputPath:  cfg.Logger.OutputPath,
		ServiceName: cfg.Logger.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx := context.Background()

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := infrastructure.CloseDatabase(db); err != nil {
			l.Error("failed to close database", zap.Error(err))
		}
	}()

	repo := postgres.NewUserRepoPG(db, l)
	uc := useradmin.NewUseCase(repo, cache.NewNoopCountsCache(), l)

	var in io.Reader = os.Stdin
	if filePath != "-" {
		f, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		in = f
	}

	result, err := uc.ImportUsers(ctx, in)
	if err != nil {
		return err
	}

	for _, importErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "line %d: %s\n", importErr.Line, importErr.Message)
	}
	fmt.Printf("imported %d account(s), skipped %d line(s)\n", result.Imported, result.Skipped)

	return nil
}
