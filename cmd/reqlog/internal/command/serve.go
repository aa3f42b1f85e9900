package command

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/config"
	"github.com/thalib/reqlog/cmd/reqlog/internal/logging"
	"github.com/thalib/reqlog/cmd/reqlog/internal/server"
	"github.com/urfave/cli/v2"
)

// ServeCommand returns the serve subcommand.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the demo server behind the request logger",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	logger := logging.Init(logging.LoggerConfig{
		Level:       logging.ParseLevel(cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		FilePath:    logFilePath(cfg),
		ServiceName: "reqlog",
		Version:     config.Version,
	})

	logConfigSummary(cfg)

	if err := server.New(cfg, logger).Run(); err != nil {
		logging.ErrorWithErr("Server error", err)
		return err
	}

	logging.Info("Server stopped gracefully")
	return nil
}

func logFilePath(cfg *config.AppConfig) string {
	if cfg.Logging.Path == "" {
		return ""
	}
	return filepath.Join(cfg.Logging.Path, "reqlog.log")
}

// logConfigSummary logs the loaded configuration
func logConfigSummary(cfg *config.AppConfig) {
	logging.Infof("Environment: %s", cfg.Environment)
	logging.Infof("Server: %s", cfg.Addr())
	logging.Infof("Log level: %s, format: %s", cfg.Logging.Level, cfg.Logging.Format)
	if path := logFilePath(cfg); path != "" {
		logging.Infof("Log file: %s", path)
	}
	logging.Infof("Skip paths: %v", cfg.AllSkipPaths())
	logging.Infof("Body logging: %v (max %d bytes)", cfg.Logging.LogBodies, cfg.Logging.MaxBodyBytes)
	if cfg.Metrics.Enabled {
		logging.Infof("Metrics: %s", cfg.Metrics.Path)
	}
}
