package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/config"
	"presidentielle/internal/dashboard"
	"presidentielle/internal/handlers"
	"presidentielle/internal/logging"
	"presidentielle/internal/parser"
	"presidentielle/internal/server"
	"presidentielle/internal/storage"
)

const defaultConfigPath = "config.yaml"

// configPath reads --config ahead of the command tree, which can only be
// built once the configuration is known
func configPath(args []string) string {
	fs := pflag.NewFlagSet("bootstrap", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("config", defaultConfigPath, "")
	_ = fs.Parse(args)
	return *path
}

func main() {
	path := configPath(os.Args[1:])

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// The data bundle is part of the deployment: without it nothing can be drawn
	bundle, err := storage.NewDirBundle(cfg.DataDir, cfg.Encoding, logger)
	if err != nil {
		logger.Fatal("Failed to open data bundle", zap.Error(err))
	}

	manager, err := parser.NewManager(parser.NewCSVLoader(bundle, logger), cfg.Sources(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize table manager", zap.Error(err))
	}

	engine, err := aggregate.New()
	if err != nil {
		logger.Fatal("Failed to initialize aggregation engine", zap.Error(err))
	}

	service := dashboard.NewService(manager, bundle, engine, cfg.Presentation, cfg.Candidates, logger)
	handler := handlers.NewDashboardHandler(service, logger)

	srv := server.New(cfg.Server, handler.Routes(), logger)
	root := srv.RootCmd()
	root.PersistentFlags().String("config", path, "dashboard configuration file (YAML)")

	// PocketBase prints command errors without returning them
	var cmdErr error
	for _, c := range []*cobra.Command{newRenderCmd(service), newAuditCmd(service)} {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			cmdErr = run(cmd, args)
			return cmdErr
		}
		root.AddCommand(c)
	}

	logger.Info("Starting dashboard",
		zap.String("data_dir", cfg.DataDir),
		zap.Int("geographies", len(cfg.Geographies)))
	if err := srv.Start(os.Args[1:]); err != nil {
		logger.Fatal("Dashboard stopped", zap.Error(err))
	}
	if cmdErr != nil {
		logger.Fatal("Command failed", zap.Error(cmdErr))
	}
}
