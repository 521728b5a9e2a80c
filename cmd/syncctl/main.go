package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pathwise/syncengine/internal/auth"
	"github.com/pathwise/syncengine/internal/config"
	"github.com/pathwise/syncengine/internal/crypto"
	"github.com/pathwise/syncengine/internal/data"
	"github.com/pathwise/syncengine/internal/engine"
	"github.com/pathwise/syncengine/internal/storage/boltdb"
	"github.com/pathwise/syncengine/internal/transport"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Глобальные флаги
var (
	flagConfig string
	flagServer string
	flagDB     string
)

func main() {
	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Pathwise client-side sync engine CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "Server URL (overrides config)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "Path to local database (overrides config)")

	root.AddCommand(
		newVersionCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newSyncCmd(),
		newSaveCmd(),
		newRemoveCmd(),
		newSetPrefCmd(),
		newListCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Pathwise syncctl\n")
			fmt.Printf("Version:    %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

// app — собранные зависимости команды: конфигурация, хранилище,
// credentials store и движок.
type app struct {
	cfg     *config.Config
	store   *boltdb.Storage
	creds   *auth.Store
	engine  *engine.Engine
	dataSvc *data.Service
	logger  *slog.Logger
}

// newApp — composition root: движок создается с внедренными транспортом
// и durable-хранилищем, никакого глобального состояния.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}
	if flagDB != "" {
		cfg.Storage.Path = flagDB
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	store, err := boltdb.New(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	creds := auth.NewStore(store)
	adapter := transport.NewHTTPAdapter(cfg.Server.URL, creds, cfg.Server.RequestTimeout, logger)

	eng, err := engine.New(adapter, store, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   store,
		creds:   creds,
		engine:  eng,
		dataSvc: data.NewService(eng, logger),
		logger:  logger,
	}, nil
}

func (a *app) close() {
	if err := a.engine.Close(); err != nil {
		a.logger.Error("failed to close engine", "error", err)
	}
}

// unlockCredentials запрашивает passphrase и настраивает ключ шифрования
// локального credentials store.
func (a *app) unlockCredentials(ctx context.Context) error {
	passphrase := os.Getenv("PATHWISE_PASSPHRASE")
	if passphrase == "" {
		fmt.Print("Passphrase: ")
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
		passphrase = string(raw)
	}
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}

	salt, err := a.creds.EnsureSalt(ctx)
	if err != nil {
		return err
	}
	key, err := crypto.DeriveKeyFromBase64Salt(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	a.creds.SetEncryptionKey(key)
	return nil
}
