package server

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"presidentielle/internal/config"
	"presidentielle/internal/handlers"
)

// Server hosts the dashboard API on PocketBase. PocketBase provides the
// router, the serve command and graceful shutdown; the election data is
// never written to its database.
type Server struct {
	app    *pocketbase.PocketBase
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New creates a PocketBase app serving routes
func New(cfg config.ServerConfig, routes []handlers.Route, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir:  cfg.DataDir,
		HideStartBanner: true,
	})

	s := &Server{app: app, cfg: cfg, logger: logger}
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		for _, rt := range routes {
			if rt.Method != http.MethodGet {
				logger.Warn("skipping route with unsupported method", zap.String("method", rt.Method), zap.String("path", rt.Path))
				continue
			}
			e.Router.GET(rt.Path, echo.WrapHandler(rt.Handler))
		}
		logger.Info("registered dashboard routes", zap.Int("routes", len(routes)), zap.String("http", cfg.HTTPAddr))
		return nil
	})
	return s
}

// RootCmd exposes the PocketBase command tree so extra commands can be added
func (s *Server) RootCmd() *cobra.Command {
	return s.app.RootCmd
}

// ServeArgs returns the arguments used when the binary is started bare
func (s *Server) ServeArgs() []string {
	return []string{"serve", "--dir", s.cfg.DataDir, "--http", s.cfg.HTTPAddr}
}

// Start runs the command line. With no arguments the API is served on
// the configured address.
func (s *Server) Start(args []string) error {
	if len(args) == 0 {
		args = s.ServeArgs()
	}
	s.app.RootCmd.SetArgs(args)
	return s.app.Start()
}
